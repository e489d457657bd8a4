package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, &Config{
		SocketURL:        DefaultSocketURL,
		BaudRate:         115200,
		DatabaseURL:      DefaultDatabaseURL,
		APIPort:          DefaultAPIPort,
		LogLevel:         log.LogLevelInfo,
		EndScreenTimeout: 30 * time.Second,
	}, cfg)
}

func TestLoad_Precedence(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CABINET_SERIAL_PORT=/dev/ttyACM0\nCABINET_API_PORT=9000\n"), 0o600))
	t.Setenv("CABINET_API_PORT", "9100")
	t.Setenv("CABINET_HEADLESS", "true")
	t.Setenv("CABINET_SOCKET_URL", "ws://10.0.0.5/ws")
	t.Cleanup(func() { os.Unsetenv("CABINET_SERIAL_PORT") })

	cfg, err := Load([]string{"-socket-url", "wss://cabinet.local/ws", "-end-screen-timeout", "45s"}, envFile)
	require.NoError(t, err)

	assert.Equal(t, "wss://cabinet.local/ws", cfg.SocketURL, "flags win over the environment")
	assert.Equal(t, 9100, cfg.APIPort, "the environment wins over the .env file")
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 45*time.Second, cfg.EndScreenTimeout)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "http socket url", args: []string{"-socket-url", "http://localhost/ws"}},
		{name: "bad log level", args: []string{"-log-level", "loud"}},
		{name: "unknown flag", args: []string{"-volume", "11"}},
		{name: "negative api port", args: []string{"-api-port", "-1"}},
		{name: "zero timeout", args: []string{"-end-screen-timeout", "0s"}},
		{name: "bad baud rate env", env: map[string]string{"CABINET_BAUD_RATE": "fast"}},
		{name: "bad headless env", env: map[string]string{"CABINET_HEADLESS": "maybe"}},
		{name: "bad timeout env", env: map[string]string{"CABINET_END_SCREEN_TIMEOUT": "30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args, "")
			assert.Error(t, err)
		})
	}
}
