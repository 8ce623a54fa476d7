package games

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVariantNotFound indicates no active variant matched the identifier.
var ErrVariantNotFound = errors.New("game variant not found")

// Repository reads the games catalog.
type Repository interface {
	ListActive(ctx context.Context) ([]Game, error)
	GetVariant(ctx context.Context, variantID string) (Variant, error)
}

// PostgresRepository reads the catalog from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed games repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActive returns active games with their active variants grouped.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]Game, error) {
	rows, err := r.db.Query(ctx, `SELECT g.id, g.code, g.name, g.type, g.status,
               gv.id, gv.name, gv.min_bet_cents, gv.max_bet_cents, gv.house_edge_percent
        FROM games g
        LEFT JOIN game_variants gv ON gv.game_id = g.id AND gv.status = 'ACTIVE'
        WHERE g.status = 'ACTIVE'
        ORDER BY g.name, gv.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		games []Game
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			gameID    uuid.UUID
			game      Game
			variantID *uuid.UUID
			name      *string
			minBet    *int64
			maxBet    *int64
			houseEdge *float64
		)
		if err := rows.Scan(&gameID, &game.Code, &game.Name, &game.Type, &game.Status,
			&variantID, &name, &minBet, &maxBet, &houseEdge); err != nil {
			return nil, err
		}
		game.ID = gameID.String()

		i, seen := index[game.ID]
		if !seen {
			games = append(games, game)
			i = len(games) - 1
			index[game.ID] = i
		}
		if variantID != nil {
			games[i].Variants = append(games[i].Variants, Variant{
				ID:               variantID.String(),
				GameID:           game.ID,
				Name:             *name,
				MinBet:           *minBet,
				MaxBet:           *maxBet,
				HouseEdgePercent: *houseEdge,
				Status:           StatusActive,
			})
		}
	}
	return games, rows.Err()
}

// GetVariant fetches one active variant of an active game.
func (r *PostgresRepository) GetVariant(ctx context.Context, variantID string) (Variant, error) {
	id, err := uuid.Parse(variantID)
	if err != nil {
		return Variant{}, ErrVariantNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT gv.id, gv.game_id, gv.name, gv.min_bet_cents, gv.max_bet_cents,
               gv.house_edge_percent, gv.status
        FROM game_variants gv
        JOIN games g ON g.id = gv.game_id AND g.status = 'ACTIVE'
        WHERE gv.id = $1 AND gv.status = 'ACTIVE'`, id)

	var (
		v   Variant
		vid uuid.UUID
		gid uuid.UUID
	)
	if err := row.Scan(&vid, &gid, &v.Name, &v.MinBet, &v.MaxBet, &v.HouseEdgePercent, &v.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, ErrVariantNotFound
		}
		return Variant{}, err
	}
	v.ID = vid.String()
	v.GameID = gid.String()
	return v, nil
}
