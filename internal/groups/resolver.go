// Package groups resolves an email address to either a group membership
// list or an individual calendar identity, via the Cloud Identity API.
package groups

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	cloudidentity "google.golang.org/api/cloudidentity/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Member is one transitive member of a group.
type Member struct {
	Email    string
	Name     string
	Relation string
}

// Identity is the outcome of resolving an email: a group with members,
// or an individual calendar.
type Identity struct {
	// Individual is set when the email is not a group.
	Individual string
	// Group and Members are set when it is.
	Group   string
	Members []Member
}

// IsGroup reports whether the identity resolved to a group.
func (id *Identity) IsGroup() bool { return id.Group != "" }

// Resolver turns an email into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, email string) (*Identity, error)
}

// CloudIdentityResolver resolves groups through the Cloud Identity API.
type CloudIdentityResolver struct {
	svc *cloudidentity.Service
	log *zap.Logger
}

// NewCloudIdentityResolver builds a resolver sharing the calendar
// client's HTTP client (same token, extra groups scope).
func NewCloudIdentityResolver(ctx context.Context, httpClient *http.Client, log *zap.Logger) (*CloudIdentityResolver, error) {
	svc, err := cloudidentity.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("cloud identity service: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CloudIdentityResolver{svc: svc, log: log}, nil
}

// Resolve looks the email up as a group. The API answers 403 for
// addresses that are not (visible) groups, so a 403 resolves to an
// individual rather than an error.
func (r *CloudIdentityResolver) Resolve(ctx context.Context, email string) (*Identity, error) {
	r.log.Info("resolving identity", zap.String("email", email))

	lookup, err := r.svc.Groups.Lookup().GroupKeyId(email).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code == http.StatusForbidden {
			// 403 here means "no such group you can see".
			return &Identity{Individual: email}, nil
		}
		return nil, fmt.Errorf("group lookup for %s: %w", email, err)
	}

	members, err := r.transitiveMembers(ctx, lookup.Name)
	if err != nil {
		return nil, err
	}
	r.log.Info("resolved group",
		zap.String("group", lookup.Name),
		zap.Int("members", len(members)))
	return &Identity{Group: lookup.Name, Members: members}, nil
}

// transitiveMembers pages through the group's transitive memberships,
// keeping only user members (nested groups come back as their users).
func (r *CloudIdentityResolver) transitiveMembers(ctx context.Context, groupName string) ([]Member, error) {
	var members []Member
	pageToken := ""

	for {
		req := r.svc.Groups.Memberships.SearchTransitiveMemberships(groupName).
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list members of %s: %w", groupName, err)
		}

		for _, m := range resp.Memberships {
			if len(m.PreferredMemberKey) == 0 {
				continue
			}
			if m.Member != "" && !isUser(m.Member) {
				continue
			}
			members = append(members, Member{
				Email:    m.PreferredMemberKey[0].Id,
				Name:     m.Member,
				Relation: m.RelationType,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return members, nil
		}
	}
}

func isUser(memberName string) bool {
	return len(memberName) > len("users/") && memberName[:len("users/")] == "users/"
}
