package app

import (
	"context"
	"fmt"

	"fxconvert/internal/storage"
)

// Migrate applies pending journal schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	applied, err := storage.MigrateUp(a.Config.Database)
	if err != nil {
		return err
	}
	if applied {
		a.Logger.Info().Str("path", a.Config.Database.MigrationsPath).Msg("migrations applied")
		fmt.Fprintln(a.Out, "migrations applied")
	} else {
		fmt.Fprintln(a.Out, "no new migrations to apply")
	}
	return nil
}
