package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/riichi-ledger/internal/config"
	"github.com/mauv0809/riichi-ledger/internal/database"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
)

const defaultMembers = 12

// Seeds a demo club: one admin, a batch of fake members, an open
// championship and an active precomputed tournament over the first eight
// members. SEED_MEMBERS overrides the member count, SEED overrides the
// faker seed.
func main() {
	log.Info("Starting database seeder...")
	cfg := config.Load()

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	members := envInt("SEED_MEMBERS", defaultMembers)
	if members < pairing.TableSize*2 {
		log.Fatalf("SEED_MEMBERS must be at least %d", pairing.TableSize*2)
	}
	seed := int64(envInt("SEED", int(time.Now().UnixNano()%1_000_000)))
	faker := gofakeit.New(uint64(seed))

	store := ledger.New(db)
	ctx := context.Background()
	startTime := time.Now()

	clubID := uuid.NewString()
	var ids []string
	err = store.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.PutClub(ctx, &ledger.Club{ID: clubID, Name: faker.City() + " Riichi Club"}); err != nil {
			return err
		}
		for i := 0; i < members+1; i++ {
			u := &ledger.User{
				ID:          uuid.NewString(),
				DisplayName: faker.Name(),
				Email:       faker.Email(),
			}
			if err := tx.PutUser(ctx, u); err != nil {
				return fmt.Errorf("failed to insert user %s: %w", u.DisplayName, err)
			}
			role := ledger.RoleMember
			if i == 0 {
				role = ledger.RoleAdmin
			}
			if err := tx.PutMember(ctx, &ledger.Member{ClubID: clubID, UserID: u.ID, Role: role, DisplayName: u.DisplayName}); err != nil {
				return fmt.Errorf("failed to insert member %s: %w", u.DisplayName, err)
			}
			ids = append(ids, u.ID)
		}

		championship := &ledger.Competition{
			ID:                uuid.NewString(),
			ClubID:            clubID,
			Name:              fmt.Sprintf("%d Season", time.Now().Year()),
			Type:              ledger.CompetitionChampionship,
			Status:            ledger.CompetitionActive,
			RulesMode:         scoring.ModeInherit,
			ValidationEnabled: true,
		}
		if err := tx.PutCompetition(ctx, championship); err != nil {
			return err
		}

		tournament := &ledger.Competition{
			ID:                uuid.NewString(),
			ClubID:            clubID,
			Name:              faker.Adjective() + " Cup",
			Type:              ledger.CompetitionTournament,
			Status:            ledger.CompetitionActive,
			RulesMode:         scoring.ModeInherit,
			ValidationEnabled: true,
			ParticipantIDs:    ids[1 : 1+pairing.TableSize*2],
			TotalRounds:       3,
			PairingAlgorithm:  pairing.PrecomputedMinRepeats,
		}
		return tx.PutCompetition(ctx, tournament)
	})
	if err != nil {
		log.Fatalf("Failed to seed club: %s", err)
	}

	log.Info("Seeded club", "clubID", clubID, "admin", ids[0], "members", members, "seed", seed, "duration", time.Since(startTime))
}

func envInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s must be an integer: %s", key, err)
	}
	return v
}
