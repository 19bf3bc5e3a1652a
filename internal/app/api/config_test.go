package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGODB_URI", "MONGODB_URI_SECRET", "MONGODB_DATABASE", "GATEWAY_TIMEOUT", "GATEWAY_CONNECT_ATTEMPTS", "SEARCH_RAW_PATTERNS", "COLLECTION_ALLOWLIST", "IMAGES_DIR", "SENDGRID_API_KEY", "ORDER_NOTIFY_TO"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, "School__Activities", cfg.MongoDatabase)
	require.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	require.Equal(t, 10, cfg.GatewayConnectAttempts)
	require.Equal(t, "./images", cfg.ImagesDir)
	require.False(t, cfg.SearchRawPatterns)
	require.Empty(t, cfg.CollectionAllowlist)
	require.False(t, cfg.NotificationsEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("GATEWAY_TIMEOUT", "2500ms")
	t.Setenv("GATEWAY_CONNECT_ATTEMPTS", "0")
	t.Setenv("SEARCH_RAW_PATTERNS", "true")
	t.Setenv("COLLECTION_ALLOWLIST", " lessons, orders ,,")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	t.Setenv("ORDER_NOTIFY_TO", "office@example.com")
	t.Setenv("TEMPORAL_DISABLED", "yes")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.Addr())
	require.Equal(t, 2500*time.Millisecond, cfg.GatewayTimeout)
	require.Zero(t, cfg.GatewayConnectAttempts)
	require.True(t, cfg.SearchRawPatterns)
	require.Equal(t, []string{"lessons", "orders"}, cfg.CollectionAllowlist)
	require.True(t, cfg.NotificationsEnabled())
	require.True(t, cfg.TemporalDisabled)
}

func TestLoadConfig_BareSecondsTimeout(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "15")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.GatewayTimeout)
}

func TestLoadConfig_RejectsMalformedValues(t *testing.T) {
	cases := map[string][2]string{
		"port":           {"PORT", "http"},
		"timeout":        {"GATEWAY_TIMEOUT", "-1s"},
		"attempts":       {"GATEWAY_CONNECT_ATTEMPTS", "many"},
		"raw patterns":   {"SEARCH_RAW_PATTERNS", "sometimes"},
		"zero timeout":   {"GATEWAY_TIMEOUT", "0"},
		"negative tries": {"GATEWAY_CONNECT_ATTEMPTS", "-2"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_RejectsBothMongoSources(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_URI_SECRET", "projects/p/secrets/mongo")

	_, err := LoadConfig()
	require.Error(t, err)
}
