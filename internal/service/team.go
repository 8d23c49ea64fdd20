package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

var (
	ErrSlugTaken   = errors.New("team slug is already taken")
	ErrInvalidSlug = errors.New("slug must be lowercase letters, digits and hyphens")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,38}[a-z0-9])?$`)

type TeamService struct {
	Store store.Store
}

// Create inserts a team together with its OWNER membership in one
// transaction, so no team ever exists without an owner. Slug uniqueness is a
// database constraint, not a pre-read.
func (s *TeamService) Create(ctx context.Context, actor domain.Actor, name, slug, icon string) (domain.Team, error) {
	log := slogx.FromContext(ctx)

	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return domain.Team{}, ErrInvalidSlug
	}

	team := domain.Team{
		ID:   idx.New().String(),
		Slug: slug,
		Name: name,
		Icon: icon,
	}
	membership := domain.Membership{
		ID:     idx.New().String(),
		TeamID: team.ID,
		UserID: actor.UserID,
		Role:   rbac.RoleOwner,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Teams().CreateTeam(ctx, team); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrSlugTaken
			}
			return fmt.Errorf("create team: %w", err)
		}
		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}

	log.Info("team created",
		slog.String("team_id", team.ID),
		slog.String("slug", slug),
		slog.String("owner_id", actor.UserID),
	)
	return team, nil
}

// Get returns a team the actor belongs to.
func (s *TeamService) Get(ctx context.Context, actor domain.Actor, teamID string) (domain.Team, error) {
	if _, err := requireMembership(ctx, s.Store, actor, teamID); err != nil {
		return domain.Team{}, err
	}
	team, err := s.Store.Teams().GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Team{}, ErrTeamNotFound
		}
		return domain.Team{}, fmt.Errorf("fetch team: %w", err)
	}
	return team, nil
}

// List returns the teams the actor holds a membership in.
func (s *TeamService) List(ctx context.Context, actor domain.Actor) ([]domain.Team, error) {
	return s.Store.Teams().ListTeamsForUser(ctx, actor.UserID)
}

// Update changes a team's display name and icon.
func (s *TeamService) Update(ctx context.Context, actor domain.Actor, teamID, name, icon string) error {
	if _, err := requireCapability(ctx, s.Store, actor, teamID, rbac.CapUpdateTeam); err != nil {
		return err
	}
	if err := s.Store.Teams().UpdateTeam(ctx, teamID, name, icon); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

// Delete removes a team; memberships, invitations and projects cascade.
func (s *TeamService) Delete(ctx context.Context, actor domain.Actor, teamID string) error {
	log := slogx.FromContext(ctx)

	if _, err := requireCapability(ctx, s.Store, actor, teamID, rbac.CapDeleteTeam); err != nil {
		return err
	}
	if err := s.Store.Teams().DeleteTeam(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("delete team: %w", err)
	}

	log.Info("team deleted",
		slog.String("team_id", teamID),
		slog.String("actor_id", actor.UserID),
	)
	return nil
}
