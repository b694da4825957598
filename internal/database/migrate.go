package database

import (
	"fmt"

	"github.com/aerostat-sim/airship/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const migrateBatchSize = 500

// MigrateBackup copies every flight table from a backup database into dst
// inside one transaction. Primary keys are reassigned by dst; rows whose
// session id already exists there are skipped. It returns rows copied per table.
func (m *Manager) MigrateBackup(src *gorm.DB) (map[string]int64, error) {
	counts := map[string]int64{}
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			table string
			run   func() (int64, error)
		}{
			{"sessions", func() (int64, error) {
				return migrateTable(src, tx, func(r *model.Session) { r.ID = 0 })
			}},
			{"session_states", func() (int64, error) {
				return migrateTable(src, tx, func(r *model.SessionState) { r.ID = 0 })
			}},
			{"track_points", func() (int64, error) {
				return migrateTable(src, tx, func(r *model.TrackPoint) { r.ID = 0 })
			}},
			{"rejection_events", func() (int64, error) {
				return migrateTable(src, tx, func(r *model.RejectionEvent) { r.ID = 0 })
			}},
		}
		for _, s := range steps {
			if !src.Migrator().HasTable(s.table) {
				m.Logger.Debug().Str("table", s.table).Msg("Table missing in backup, skipping")
				continue
			}
			n, err := s.run()
			if err != nil {
				return fmt.Errorf("error migrating %s: %w", s.table, err)
			}
			counts[s.table] = n
			m.Logger.Info().Str("table", s.table).Int64("count", n).Msg("Migrated records")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// migrateTable copies all rows of M in batches.
func migrateTable[M any](src, dst *gorm.DB, reset func(*M)) (int64, error) {
	var (
		batch []M
		total int64
	)
	res := src.Model(new(M)).FindInBatches(&batch, migrateBatchSize, func(_ *gorm.DB, _ int) error {
		// FindInBatches pages on the source keys, so insert a copy.
		rows := make([]M, len(batch))
		copy(rows, batch)
		for i := range rows {
			reset(&rows[i])
		}
		r := dst.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if r.Error != nil {
			return r.Error
		}
		total += r.RowsAffected
		return nil
	})
	return total, res.Error
}
