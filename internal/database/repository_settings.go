package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// GetSettings retrieves the settings snapshot for a user.
// Returns nil when the user has never saved settings.
func (r *Repository) GetSettings(ctx context.Context, userID string) (*UserSettings, error) {
	query := `
		SELECT user_id, COALESCE(broker, ''), COALESCE(asset, ''), COALESCE(duration, ''),
			COALESCE(last_ten, '{}'), COALESCE(model_count, 0),
			COALESCE(confidence_threshold, ''), COALESCE(techniques, '{}'),
			COALESCE(persona, ''), updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	settings := &UserSettings{}
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Broker,
		&settings.Asset,
		&settings.Duration,
		&settings.LastTen,
		&settings.ModelCount,
		&settings.ConfidenceThreshold,
		&settings.Techniques,
		&settings.Persona,
		&settings.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("failed to load user settings", err)
	}

	return settings, nil
}

// SaveSettings merge-writes a settings patch (UPSERT). Nil patch fields leave
// the stored value untouched; the rolling last-ten history is truncated to
// MaxLastTen entries before it hits the store.
func (r *Repository) SaveSettings(ctx context.Context, userID string, patch *SettingsPatch) error {
	lastTen := patch.LastTen
	if len(lastTen) > MaxLastTen {
		lastTen = lastTen[:MaxLastTen]
	}

	query := `
		INSERT INTO user_settings (
			user_id, broker, asset, duration, last_ten, model_count,
			confidence_threshold, techniques, persona
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			broker = COALESCE(EXCLUDED.broker, user_settings.broker),
			asset = COALESCE(EXCLUDED.asset, user_settings.asset),
			duration = COALESCE(EXCLUDED.duration, user_settings.duration),
			last_ten = COALESCE(EXCLUDED.last_ten, user_settings.last_ten),
			model_count = COALESCE(EXCLUDED.model_count, user_settings.model_count),
			confidence_threshold = COALESCE(EXCLUDED.confidence_threshold, user_settings.confidence_threshold),
			techniques = COALESCE(EXCLUDED.techniques, user_settings.techniques),
			persona = COALESCE(EXCLUDED.persona, user_settings.persona),
			updated_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		userID,
		patch.Broker,
		patch.Asset,
		patch.Duration,
		lastTen,
		patch.ModelCount,
		patch.ConfidenceThreshold,
		patch.Techniques,
		patch.Persona,
	)
	if err != nil {
		return storageErr("failed to save user settings", err)
	}

	return nil
}
