package main

import (
	"context"
	"time"

	"catalog-site/config"
	"catalog-site/database"
	"catalog-site/refresh"
	"catalog-site/writelog"
)

func cleanupWriteFailures() {
	log.Debugln("cleanupWriteFailures...")
	cutoff := time.Now().Add(-config.GetFailureRetention())
	n, err := writelog.DeleteOlderThan(database.Get(), cutoff)
	if err != nil {
		log.Errorf("Error cleaning up write failures: %v", err)
	} else {
		log.Infof("Cleaned up %d write failures", n)
	}
}

func vacuumDatabase() {
	if err := database.Vacuum(); err != nil {
		log.Errorln(err)
	}
}

func PeriodicCleanup(ctx context.Context) {
	cleanupWriteFailures()
	vacuumDatabase()
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupWriteFailures()
			vacuumDatabase()
		}
	}
}

// refreshWorker keeps the catalog current in the background.
func refreshWorker(ctx context.Context, r *refresh.Refresher) {
	interval := config.GetRefreshInterval()
	if interval > 0 {
		log.Infof("refreshing catalog every %s", interval)
	}
	r.Run(ctx, interval)
}
