package db

import (
	"context"
	"fmt"
)

// ListArtifacts returns a profile's integration artifacts, oldest first,
// optionally restricted to one source.
func (db *DB) ListArtifacts(ctx context.Context, filters ArtifactFilters) ([]IntegrationArtifact, error) {
	query := `SELECT id, profile_id, source, payload, created_at, updated_at
		FROM integration_artifacts WHERE profile_id = $1`
	args := []any{filters.ProfileID}

	if filters.Source != "" {
		query += " AND source = $2"
		args = append(args, filters.Source)
	}
	query += " ORDER BY created_at, seq"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []IntegrationArtifact{}
	for rows.Next() {
		var a IntegrationArtifact
		var payload []byte
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.Source, &payload, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Payload = payload
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
