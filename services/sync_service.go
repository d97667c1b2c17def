package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/models"

	"gorm.io/gorm"
)

// SyncService reconciles the locally persisted compute unit and
// streamer records against the inventory each unit reports live.
type SyncService struct {
	db      *gorm.DB
	devices DeviceClient

	mu        sync.Mutex
	unitLocks map[uint]*sync.Mutex
}

func NewSyncService(db *gorm.DB, devices DeviceClient) *SyncService {
	return &SyncService{
		db:        db,
		devices:   devices,
		unitLocks: make(map[uint]*sync.Mutex),
	}
}

// unitLock returns the mutex serializing reconciliation of one unit.
// Different units reconcile concurrently.
func (s *SyncService) unitLock(unitID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.unitLocks[unitID]
	if !ok {
		lock = &sync.Mutex{}
		s.unitLocks[unitID] = lock
	}
	return lock
}

// ForgetUnit drops the lock entry of a deleted compute unit so the map
// does not grow with the lifetime fleet.
func (s *SyncService) ForgetUnit(unitID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unitLocks, unitID)
}

// Reconcile merges a compute unit's live-reported inventory into the
// local database. It is idempotent and safe to invoke on every listing
// read. A transport failure marks the unit offline and all its
// streamers inactive; only a persistence failure is returned as an
// error. The unit's Status and LastSeen fields are updated in place so
// callers can serialize the result directly.
func (s *SyncService) Reconcile(unit *models.ComputeUnit) error {
	lock := s.unitLock(unit.ID)
	lock.Lock()
	defer lock.Unlock()

	remote, err := s.devices.FetchStreamers(unit.IPAddress)
	if err != nil {
		log.Printf("[Sync] Compute unit %s unreachable: %v", unit.IPAddress, err)
		return s.markUnitOffline(unit)
	}

	// A features-fetch failure degrades to an empty assignment list; it
	// never aborts the pass.
	assignments, err := s.devices.FetchAppAssignments(unit.IPAddress)
	if err != nil {
		log.Printf("[Sync] App assignments unavailable for %s: %v", unit.IPAddress, err)
		assignments = nil
	}

	now := time.Now().UTC()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, reported := range remote {
			if reported.StreamerUUID == "" {
				continue
			}
			if err := upsertStreamer(tx, unit, reported, assignments, now); err != nil {
				return err
			}
		}

		return tx.Model(&models.ComputeUnit{}).
			Where("id = ?", unit.ID).
			Updates(map[string]interface{}{
				"status":    models.UnitStatusOnline,
				"last_seen": now,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to commit reconciliation for %s: %w", unit.IPAddress, err)
	}

	unit.Status = models.UnitStatusOnline
	unit.LastSeen = &now
	return nil
}

// upsertStreamer creates or updates one streamer row keyed by its
// device-assigned UUID.
func upsertStreamer(tx *gorm.DB, unit *models.ComputeUnit, reported RemoteStreamer, assignments []AppAssignment, now time.Time) error {
	var streamer models.Streamer
	err := tx.Where("streamer_uuid = ?", reported.StreamerUUID).First(&streamer).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		streamer = models.Streamer{
			StreamerUUID:       reported.StreamerUUID,
			StreamerType:       reported.StreamerType,
			StreamerHrName:     reported.StreamerHrName,
			ConfigTemplateName: reported.ConfigTemplateName,
		}
		if streamer.StreamerType == "" {
			streamer.StreamerType = "camera"
		}
		if streamer.StreamerHrName == "" {
			streamer.StreamerHrName = reported.StreamerUUID
		}
		if streamer.ConfigTemplateName == "" {
			streamer.ConfigTemplateName = "default"
		}
	case err != nil:
		return err
	default:
		// An empty remote name must not revert a local operator rename.
		if reported.StreamerHrName != "" {
			streamer.StreamerHrName = reported.StreamerHrName
		}
		if reported.StreamerType != "" {
			streamer.StreamerType = reported.StreamerType
		}
		if reported.ConfigTemplateName != "" {
			streamer.ConfigTemplateName = reported.ConfigTemplateName
		}
	}

	streamer.IsAlive = reported.IsAlive
	if IsWireTrue(reported.IsAlive) {
		streamer.Status = models.StreamerStatusActive
	} else {
		streamer.Status = models.StreamerStatusInactive
	}

	// The UUID is globally unique, so a streamer reported by another
	// unit migrates to it here.
	unitID := unit.ID
	streamer.ComputeUnitID = &unitID
	streamer.IPAddress = unit.IPAddress
	streamer.Features = DeriveFeatures(reported.StreamerUUID, assignments)
	streamer.LastSeen = &now

	return tx.Save(&streamer).Error
}

// markUnitOffline flips the unit offline and every owned streamer
// inactive with liveness cleared, in one transaction.
func (s *SyncService) markUnitOffline(unit *models.ComputeUnit) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Streamer{}).
			Where("compute_unit_id = ?", unit.ID).
			Updates(map[string]interface{}{
				"status":   models.StreamerStatusInactive,
				"is_alive": "false",
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.ComputeUnit{}).
			Where("id = ?", unit.ID).
			Update("status", models.UnitStatusOffline).Error
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s offline: %w", unit.IPAddress, err)
	}

	unit.Status = models.UnitStatusOffline
	return nil
}

// ReconcileOnline reconciles every currently online unit in the given
// slice concurrently, updating the elements in place. A failure for
// one unit never blocks the others; the failed unit is reported
// offline so the caller always serializes a consistent snapshot.
func (s *SyncService) ReconcileOnline(units []models.ComputeUnit) {
	var wg sync.WaitGroup
	for i := range units {
		if units[i].Status != models.UnitStatusOnline {
			continue
		}
		wg.Add(1)
		go func(unit *models.ComputeUnit) {
			defer wg.Done()
			if err := s.Reconcile(unit); err != nil {
				log.Printf("[Sync] Reconciliation failed for %s: %v", unit.IPAddress, err)
				unit.Status = models.UnitStatusOffline
			}
		}(&units[i])
	}
	wg.Wait()
}

// ReconcileAll reconciles every registered unit, online or offline, so
// a recovered device comes back online. Used by the periodic monitor.
func (s *SyncService) ReconcileAll() {
	var units []models.ComputeUnit
	if err := s.db.Find(&units).Error; err != nil {
		log.Printf("[Sync] Failed to load compute units: %v", err)
		return
	}

	var wg sync.WaitGroup
	for i := range units {
		wg.Add(1)
		go func(unit *models.ComputeUnit) {
			defer wg.Done()
			if err := s.Reconcile(unit); err != nil {
				log.Printf("[Sync] Reconciliation failed for %s: %v", unit.IPAddress, err)
			}
		}(&units[i])
	}
	wg.Wait()
}
