package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/cache"
	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/remote"
	"github.com/jne-ops/opsboard-api/pkg/config"
)

// Recorder receives sync observability events. Implemented by the metrics
// service; a nil recorder disables instrumentation.
type Recorder interface {
	ObserveSync(target, op string, success bool, duration time.Duration)
}

// Deps bundles the engine's injected collaborators.
type Deps struct {
	Cache        cache.Port
	Probe        remote.Probe
	Metrics      Recorder
	Logger       *zap.Logger
	Clock        func() time.Time
	KnownUsers   []models.User
	StoreFactory func(mode models.StorageMode, resolveScriptURL func() string) remote.Store

	// OnUsersChanged fires after a successful load merges the user list,
	// including loads driven by the background ticker. The session store
	// hooks in here so a password reset made on another client reaches the
	// active session without a manual refresh.
	OnUsersChanged func(users []models.User)
}

// Engine owns the canonical in-memory aggregate and reconciles it between
// the local durability cache and whichever remote store is configured.
//
// The reconciliation rules, in order of precedence:
//   - a save in flight suppresses any concurrent load, so a stale remote
//     read can never clobber an optimistic write;
//   - on save, memory and the local cache are written before the remote
//     attempt, so data survives a crash during a pending remote save;
//   - on load, a successful remote fetch is authoritative for jobs and
//     logs, while users are merged against the static known list;
//   - remote failures only ever degrade the connection flag. Stale local
//     data always beats an empty dataset.
type Engine struct {
	cfg      config.SyncConfig
	cache    cache.Port
	probe    remote.Probe
	metrics  Recorder
	logger   *zap.Logger
	now      func() time.Time
	known    []models.User
	newStore func(models.StorageMode, func() string) remote.Store

	onUsersChanged func([]models.User)

	mu         sync.Mutex
	data       models.AppData
	settings   models.StorageSettings
	store      remote.Store
	loading    bool
	saving     bool
	connErr    bool
	lastSynced *time.Time
}

// New builds the engine, restoring the persisted storage preference when
// one exists and falling back to the configured default mode.
func New(cfg config.SyncConfig, deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Probe == nil {
		deps.Probe = remote.AlwaysOnline{}
	}
	if deps.KnownUsers == nil {
		deps.KnownUsers = models.DefaultAuthorizedUsers
	}

	e := &Engine{
		cfg:            cfg,
		cache:          deps.Cache,
		probe:          deps.Probe,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		now:            deps.Clock,
		known:          deps.KnownUsers,
		onUsersChanged: deps.OnUsersChanged,
	}

	if deps.StoreFactory != nil {
		e.newStore = deps.StoreFactory
	} else {
		e.newStore = func(mode models.StorageMode, resolve func() string) remote.Store {
			return remote.NewStore(mode, cfg, deps.Probe, resolve, deps.Logger)
		}
	}

	mode := models.StorageMode(cfg.DefaultMode)
	if !mode.Valid() {
		mode = models.ModeScript
	}
	e.settings = models.StorageSettings{Mode: mode}
	if saved, err := e.cache.ReadSettings(); err == nil && saved != nil && saved.Mode.Valid() {
		e.settings = *saved
	}

	e.data = models.AppData{Users: append([]models.User(nil), e.known...)}
	e.data.Normalize()
	e.store = e.newStore(e.settings.Mode, e.resolveScriptURL)

	return e
}

// resolveScriptURL prefers the user override from the persisted settings
// and falls back to the compiled-in default. It is consulted on every
// script request, so an override applies on the very next sync.
func (e *Engine) resolveScriptURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settings.ScriptURL != "" {
		return e.settings.ScriptURL
	}
	return e.cfg.ScriptURL
}

// Load refreshes the aggregate: cache first for an instant answer, then
// the remote store if one is configured. It is a no-op while a save is in
// flight.
func (e *Engine) Load(ctx context.Context) models.SyncStatus {
	e.mu.Lock()
	if e.saving {
		defer e.mu.Unlock()
		return e.statusLocked()
	}
	e.loading = true
	mode := e.settings.Mode
	store := e.store

	// Hydrate from the durability cache, but only when memory is empty or
	// the engine is local-only; a background refresh must not make visible
	// data flicker.
	if cached, err := e.cache.ReadData(); err == nil && cached != nil {
		if mode == models.ModeLocal || (len(e.data.Jobs) == 0 && len(e.data.ValidationLogs) == 0) {
			e.adoptLocked(cached)
		}
	}

	if mode == models.ModeLocal || store == nil {
		e.connErr = false
		e.stampLocked()
		e.loading = false
		defer e.mu.Unlock()
		return e.statusLocked()
	}
	e.mu.Unlock()

	if !e.probe.Online() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.connErr = true
		e.loading = false
		return e.statusLocked()
	}

	start := e.now()
	data, err := store.GetData(ctx)
	if e.metrics != nil {
		e.metrics.ObserveSync(store.Name(), "load", err == nil, e.now().Sub(start))
	}

	e.mu.Lock()
	e.loading = false

	// A save started while the fetch was in the air; its payload is newer
	// than whatever the remote returned.
	if e.saving {
		defer e.mu.Unlock()
		return e.statusLocked()
	}

	if err != nil {
		defer e.mu.Unlock()
		e.logger.Warn("remote sync failed, keeping local data",
			zap.String("target", store.Name()), zap.Error(err))
		e.connErr = true
		return e.statusLocked()
	}
	if data == nil {
		// No authoritative data; cache remains the truth.
		defer e.mu.Unlock()
		return e.statusLocked()
	}

	e.connErr = false
	if data.Jobs != nil {
		e.data.Jobs = data.Jobs
	}
	if data.ValidationLogs != nil {
		e.data.ValidationLogs = data.ValidationLogs
	}
	if data.Users != nil {
		e.data.Users = models.MergeUsers(e.known, data.Users)
	}

	snapshot := e.data.Clone()
	snapshot.Normalize()
	if err := e.cache.WriteData(snapshot); err != nil {
		e.logger.Error("failed to persist synced snapshot", zap.Error(err))
	}
	e.stampLocked()
	status := e.statusLocked()
	users := append([]models.User(nil), e.data.Users...)
	e.mu.Unlock()

	// Outside the lock: the hook may touch the session store or call back
	// into the engine.
	if e.onUsersChanged != nil {
		e.onUsersChanged(users)
	}
	return status
}

// Save replaces the aggregate optimistically: memory and the local cache
// are updated before the remote attempt, and a remote failure neither
// rolls back nor raises — the next cycle retries. Last writer wins at
// whole-aggregate granularity.
func (e *Engine) Save(ctx context.Context, jobs []models.Job, users []models.User, logs []models.ValidationLog) models.SyncStatus {
	e.mu.Lock()
	e.saving = true
	e.data = models.AppData{
		Jobs:           append([]models.Job(nil), jobs...),
		Users:          append([]models.User(nil), users...),
		ValidationLogs: append([]models.ValidationLog(nil), logs...),
	}
	e.data.Normalize()

	snapshot := e.data.Clone()
	snapshot.Normalize()
	if err := e.cache.WriteData(snapshot); err != nil {
		// The local write is the durability guarantee; its failure is loud.
		e.logger.Error("failed to persist snapshot locally", zap.Error(err))
	}
	mode := e.settings.Mode
	store := e.store
	e.mu.Unlock()

	if mode == models.ModeLocal || store == nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.connErr = false
		e.stampLocked()
		e.saving = false
		return e.statusLocked()
	}

	start := e.now()
	ok := store.SaveData(ctx, snapshot)
	if e.metrics != nil {
		e.metrics.ObserveSync(store.Name(), "save", ok, e.now().Sub(start))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ok {
		e.connErr = false
		e.stampLocked()
	} else {
		e.logger.Warn("remote save failed, data retained locally",
			zap.String("target", store.Name()))
		e.connErr = true
	}
	e.saving = false
	return e.statusLocked()
}

// Status reports the engine flags for the UI status badge.
func (e *Engine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// Snapshot returns a copy of the canonical aggregate.
func (e *Engine) Snapshot() *models.AppData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone()
}

// Settings returns the active storage preference.
func (e *Engine) Settings() models.StorageSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetStorageMode switches the backend and persists the preference. The
// caller should follow up with a Load so the new backend takes effect
// immediately.
func (e *Engine) SetStorageMode(mode models.StorageMode, scriptURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings = models.StorageSettings{Mode: mode, ScriptURL: scriptURL}
	if err := e.cache.WriteSettings(e.settings); err != nil {
		return err
	}
	e.store = e.newStore(mode, e.resolveScriptURL)
	return nil
}

// Run drives the periodic sync loop until the context is canceled.
func (e *Engine) Run(ctx context.Context) {
	interval := e.cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	e.Load(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Load(ctx)
		}
	}
}

func (e *Engine) adoptLocked(cached *models.AppData) {
	e.data.Jobs = cached.Jobs
	e.data.ValidationLogs = cached.ValidationLogs
	if len(cached.Users) > 0 {
		e.data.Users = cached.Users
	} else {
		e.data.Users = append([]models.User(nil), e.known...)
	}
	e.data.Normalize()
}

func (e *Engine) stampLocked() {
	now := e.now()
	e.lastSynced = &now
}

func (e *Engine) statusLocked() models.SyncStatus {
	return models.SyncStatus{
		IsLoading:       e.loading,
		IsSaving:        e.saving,
		ConnectionError: e.connErr,
		LastSyncedAt:    e.lastSynced,
		Mode:            e.settings.Mode,
		JobCount:        len(e.data.Jobs),
	}
}
