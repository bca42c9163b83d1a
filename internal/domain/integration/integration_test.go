package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Integration Tests
// ---------------------------------------------------------------------------

func TestNewIntegration(t *testing.T) {
	userID := uuid.New()

	t.Run("Valid integration creation", func(t *testing.T) {
		i, err := NewIntegration(userID, ProviderHotjar, "  Marketing site  ", Config{"siteId": "1"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, i.ID)
		assert.Equal(t, userID, i.UserID)
		assert.Equal(t, ProviderHotjar, i.Type)
		assert.Equal(t, "Marketing site", i.Name)
		assert.Equal(t, StatusActive, i.Status)
		assert.Nil(t, i.LastSync)
	})

	t.Run("Nil config becomes empty", func(t *testing.T) {
		i, err := NewIntegration(userID, ProviderFigma, "Designs", nil)
		require.NoError(t, err)
		assert.NotNil(t, i.Config)
	})

	tests := []struct {
		name         string
		userID       uuid.UUID
		providerType ProviderType
		label        string
		wantErr      error
	}{
		{"missing owner", uuid.Nil, ProviderHotjar, "x", ErrInvalidOwner},
		{"unknown type", userID, ProviderType("SEGMENT"), "x", ErrInvalidProviderType},
		{"blank name", userID, ProviderHotjar, "   ", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntegration(tt.userID, tt.providerType, tt.label, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIntegration_SyncLifecycle(t *testing.T) {
	newIntegration := func(t *testing.T) *Integration {
		i, err := NewIntegration(uuid.New(), ProviderCustom, "API", Config{})
		require.NoError(t, err)
		return i
	}

	t.Run("Begin then complete", func(t *testing.T) {
		i := newIntegration(t)
		require.NoError(t, i.BeginSync(false))
		assert.Equal(t, StatusSyncing, i.Status)

		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		i.CompleteSync(at)
		assert.Equal(t, StatusActive, i.Status)
		require.NotNil(t, i.LastSync)
		assert.Equal(t, at, *i.LastSync)
	})

	t.Run("Begin then fail keeps last sync", func(t *testing.T) {
		i := newIntegration(t)
		prev := time.Now().Add(-time.Hour)
		i.LastSync = &prev

		require.NoError(t, i.BeginSync(false))
		i.FailSync()
		assert.Equal(t, StatusError, i.Status)
		assert.Equal(t, prev, *i.LastSync)
	})

	t.Run("Already syncing is rejected without force", func(t *testing.T) {
		i := newIntegration(t)
		i.Status = StatusSyncing

		err := i.BeginSync(false)
		assert.ErrorIs(t, err, ErrAlreadySyncing)
		assert.Equal(t, StatusSyncing, i.Status)
	})

	t.Run("Force proceeds from any status", func(t *testing.T) {
		for _, s := range []Status{StatusActive, StatusInactive, StatusError, StatusSyncing} {
			i := newIntegration(t)
			i.Status = s
			assert.NoError(t, i.BeginSync(true), s.String())
			assert.Equal(t, StatusSyncing, i.Status)
		}
	})

	t.Run("Data update leaves status alone", func(t *testing.T) {
		i := newIntegration(t)
		i.Status = StatusInactive
		i.MarkDataUpdated(time.Now())
		assert.Equal(t, StatusInactive, i.Status)
		assert.NotNil(t, i.LastSync)
	})
}

func TestIntegration_Edits(t *testing.T) {
	i, err := NewIntegration(uuid.New(), ProviderMixpanel, "Events", Config{"projectId": "p"})
	require.NoError(t, err)

	assert.ErrorIs(t, i.Rename(""), ErrInvalidName)
	require.NoError(t, i.Rename("Product events"))
	assert.Equal(t, "Product events", i.Name)

	assert.ErrorIs(t, i.SetStatus(Status("PAUSED")), ErrInvalidStatus)
	require.NoError(t, i.SetStatus(StatusInactive))
	assert.Equal(t, StatusInactive, i.Status)

	i.ReplaceConfig(nil)
	assert.Equal(t, Config{}, i.Config)

	assert.True(t, i.IsOwnedBy(i.UserID))
	assert.False(t, i.IsOwnedBy(uuid.New()))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusActive.IsReadyForSync())
	assert.True(t, StatusError.IsReadyForSync())
	assert.False(t, StatusInactive.IsReadyForSync())
	assert.False(t, StatusSyncing.IsReadyForSync())
	assert.False(t, Status("").IsValid())
}

func TestConfig(t *testing.T) {
	c := Config{"a": "x", "b": nil, "c": 0}
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.False(t, c.Has("d"))
	assert.Equal(t, "x", c.String("a"))
	assert.Equal(t, "", c.String("c"))

	clone := c.Clone()
	clone["a"] = "y"
	assert.Equal(t, "x", c["a"])
}

// ---------------------------------------------------------------------------
// ProviderType / DateRange Tests
// ---------------------------------------------------------------------------

func TestProviderType(t *testing.T) {
	for _, p := range AllProviderTypes() {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, ProviderFigma.IsSyncable())
	assert.True(t, ProviderCustom.IsSyncable())
	assert.False(t, ProviderType("UNKNOWN").IsSyncable())
	assert.Equal(t, "Google Analytics", ProviderGoogleAnalytics.DisplayName())
	assert.Equal(t, "UNKNOWN", ProviderType("UNKNOWN").DisplayName())
}

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	today := Today(now)
	assert.Equal(t, DateRange{Start: "2024-03-31", End: "2024-03-31"}, today)
	assert.NoError(t, today.Validate())

	last30 := LastDays(now, 30)
	assert.Equal(t, "2024-03-01", last30.Start)
	assert.Equal(t, "2024-03-31", last30.End)

	assert.Error(t, DateRange{Start: "2024-04-02", End: "2024-04-01"}.Validate())
	assert.Error(t, DateRange{Start: "yesterday", End: "2024-04-01"}.Validate())
}

func TestUnsupportedProviderError(t *testing.T) {
	err := UnsupportedProviderError(ProviderType("UNKNOWN"))
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "Unsupported integration type: UNKNOWN")
}

func TestNewIntegrationLog(t *testing.T) {
	id := uuid.New()
	l := NewIntegrationLog(id, LogTypeSyncComplete, "done", map[string]any{"dataPoints": 3})
	assert.Equal(t, id, l.IntegrationID)
	assert.True(t, l.Type.IsValid())
	assert.False(t, LogType("deleted").IsValid())

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, l.At(ts).Timestamp)
}
