// Package tier converges guild members' tier roles with their levels.
package tier

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
)

// roleSession captures the subset of discordgo.Session behavior the
// reconciler needs, for stubbing in tests.
type roleSession interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Reconciler assigns tier roles. Assign is an idempotent converge: repeated
// calls with the same level settle on the same role set and perform no
// redundant removes.
type Reconciler struct {
	session roleSession
	guildID string
	logger  *logrus.Entry
}

// NewReconciler constructs a Reconciler for the given guild.
func NewReconciler(session roleSession, guildID string, logger *logrus.Entry) *Reconciler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Reconciler{
		session: session,
		guildID: guildID,
		logger:  logger,
	}
}

// Assign converges the member's tier roles onto the tier for the level. A
// level with no tier strips any held tier roles. Individual role operation
// failures are logged and do not stop the remaining operations.
func (r *Reconciler) Assign(userID string, level int) error {
	if r == nil || r.session == nil {
		return errors.New("reconciler is not initialized")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	roles, err := r.session.GuildRoles(r.guildID)
	if err != nil {
		return fmt.Errorf("list guild roles: %w", err)
	}

	member, err := r.session.GuildMember(r.guildID, userID)
	if err != nil {
		return fmt.Errorf("fetch member: %w", err)
	}

	byID := make(map[string]*discordgo.Role, len(roles))
	byName := make(map[string]*discordgo.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
		byName[role.Name] = role
	}

	targetName, hasTarget := domain.TierForLevel(level)

	var targetID string
	if hasTarget {
		target, ok := byName[targetName]
		if !ok {
			target, err = r.session.GuildRoleCreate(r.guildID, &discordgo.RoleParams{Name: targetName})
			if err != nil {
				return fmt.Errorf("create tier role %q: %w", targetName, err)
			}
			r.logger.WithFields(logging.Fields{
				"event": "tier_role_created",
				"role":  targetName,
			}).Info("created tier role")
		}
		targetID = target.ID
	}

	holdsTarget := false
	for _, roleID := range member.Roles {
		role, ok := byID[roleID]
		if !ok || !domain.IsTierRole(role.Name) {
			continue
		}
		if hasTarget && role.ID == targetID {
			holdsTarget = true
			continue
		}

		if err := r.session.GuildMemberRoleRemove(r.guildID, userID, role.ID); err != nil {
			r.logger.WithFields(logging.Fields{
				"event":   "tier_role_remove_failed",
				"user_id": userID,
				"role":    role.Name,
			}).WithError(err).Warn("failed to remove stale tier role")
			continue
		}
		r.logger.WithFields(logging.Fields{
			"event":   "tier_role_removed",
			"user_id": userID,
			"role":    role.Name,
		}).Info("removed stale tier role")
	}

	if hasTarget && !holdsTarget {
		if err := r.session.GuildMemberRoleAdd(r.guildID, userID, targetID); err != nil {
			return fmt.Errorf("add tier role %q: %w", targetName, err)
		}
		r.logger.WithFields(logging.Fields{
			"event":   "tier_role_assigned",
			"user_id": userID,
			"role":    targetName,
			"level":   level,
		}).Info("assigned tier role")
	}

	return nil
}

// Report accumulates the outcome of a bulk role sync.
type Report struct {
	Updated int
	Failed  int
	Lines   []string
}

func (rep *Report) addf(format string, args ...interface{}) {
	rep.Lines = append(rep.Lines, fmt.Sprintf(format, args...))
}

// SyncAll converges every tracked user's roles against their peak level. A
// failure for one user adds a report line and moves on; the batch never
// aborts.
func (r *Reconciler) SyncAll(records []domain.ProgressRecord) Report {
	report := Report{Lines: []string{"**Role Sync Report**"}}

	for _, record := range records {
		name := record.Username
		if name == "" {
			name = record.UserID
		}

		peak, ok := record.PeakLevel()
		if !ok {
			report.addf("⚠️ %s: No valid level entries", name)
			report.Failed++
			continue
		}

		if _, hasTier := domain.TierForLevel(peak); !hasTier {
			report.addf("⚠️ %s: No role for level %d", name, peak)
			report.Failed++
			continue
		}

		if err := r.Assign(record.UserID, peak); err != nil {
			report.addf("❌ %s: %v", name, err)
			report.Failed++
			continue
		}

		report.addf("✅ %s: Level %d", name, peak)
		report.Updated++
	}

	return report
}
