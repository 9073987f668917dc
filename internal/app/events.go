package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// EventsOptions configure the events command.
type EventsOptions struct {
	FeederID string
	Limit    int
	Out      io.Writer
}

// Events prints the most recent persisted fault events.
func (a *App) Events(ctx context.Context, opts EventsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to list fault events")
	}
	defer closeStore()

	events, err := store.ListRecent(ctx, opts.FeederID, opts.Limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(opts.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DETECTED\tFEEDER\tFAULT\tSEVERITY\tCONFIDENCE\tLOCATION_KM\tSTATUS\tID")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3f\t%.2f\t%s\t%s\n",
			e.DetectedAt.UTC().Format(time.RFC3339),
			e.FeederID,
			e.FaultType,
			e.Severity,
			e.Confidence,
			e.EstimatedLocationKm,
			e.Status,
			e.ID,
		)
	}
	return w.Flush()
}

// SetEventStatus acknowledges or resolves a persisted fault event.
func (a *App) SetEventStatus(ctx context.Context, id, status string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to update fault events")
	}
	defer closeStore()

	if err := store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	a.Logger.Info().Str("event_id", id).Str("status", status).Msg("fault event updated")
	return nil
}
