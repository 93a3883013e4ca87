package config_test

import (
	"os"
	"testing"

	"path/filepath"

	"github.com/go-dotted/dotted/config"
	"github.com/stretchr/testify/assert"
)

// Variables

const testConfig = `
RootCertLoc = "certs/root-cert.pem"

[Replicas.worker-1]
ID = 1
PublicSyncAddr = "127.0.0.1:4001"
ListenSyncAddr = "127.0.0.1:4001"
PrometheusAddr = "127.0.0.1:9001"
CertLoc = "certs/worker-1-cert.pem"
KeyLoc = "certs/worker-1-key.pem"
CRDTLogRoot = "state/worker-1"
Peers = [ "worker-2" ]

[Replicas.worker-2]
ID = 2
PublicSyncAddr = "127.0.0.1:4002"
ListenSyncAddr = "127.0.0.1:4002"
CRDTLogRoot = "state/worker-2"
Peers = [ "worker-1" ]

[Replicas.observer]
ID = 0
Peers = [ "worker-1", "worker-2" ]
`

// Functions

// TestLoadConfig executes a black-box unit test on
// implemented LoadConfig() function.
func TestLoadConfig(t *testing.T) {

	dir := t.TempDir()
	configPath := filepath.Join(dir, "dotted.toml")

	err := os.WriteFile(configPath, []byte(testConfig), 0600)
	assert.Nil(t, err, "expected writing test config to succeed")

	conf, err := config.LoadConfig(configPath)
	assert.Nil(t, err, "expected loading test config to succeed")

	assert.Equal(t, 3, len(conf.Replicas), "expected three replica definitions")

	worker1 := conf.Replicas["worker-1"]
	assert.Equal(t, "worker-1", worker1.Name, "expected map key to become replica name")
	assert.Equal(t, uint64(1), worker1.ID, "expected replica id 1")
	assert.Equal(t, []string{"worker-2"}, worker1.Peers, "expected worker-2 as peer")

	// Relative locations are absolutized against the
	// config file's directory.
	assert.Equal(t, filepath.Join(dir, "certs/root-cert.pem"), conf.RootCertLoc, "expected absolutized root cert location")
	assert.Equal(t, filepath.Join(dir, "certs/worker-1-cert.pem"), worker1.CertLoc, "expected absolutized cert location")
	assert.Equal(t, filepath.Join(dir, "state/worker-1"), worker1.CRDTLogRoot, "expected absolutized CRDT log root")

	// A replica id of 0 is a legal read-only observer.
	assert.Equal(t, uint64(0), conf.Replicas["observer"].ID, "expected observer id 0")
}

// TestLoadConfigUndefinedPeer executes a black-box unit
// test on the peer validation of LoadConfig().
func TestLoadConfigUndefinedPeer(t *testing.T) {

	dir := t.TempDir()
	configPath := filepath.Join(dir, "dotted.toml")

	broken := `
[Replicas.worker-1]
ID = 1
Peers = [ "ghost" ]
`

	err := os.WriteFile(configPath, []byte(broken), 0600)
	assert.Nil(t, err, "expected writing test config to succeed")

	_, err = config.LoadConfig(configPath)
	assert.NotNil(t, err, "expected loading config with undefined peer to fail")
}
