package config

import (
	"fmt"

	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Structs

// Config holds all information parsed from supplied config
// file.
type Config struct {
	RootCertLoc string
	Replicas    map[string]Replica
}

// Replica contains the identity, addresses and file system
// locations of one replica node of a dotted cluster.
type Replica struct {
	Name           string
	ID             uint64
	PublicSyncAddr string
	ListenSyncAddr string
	PrometheusAddr string
	CertLoc        string
	KeyLoc         string
	CRDTLogRoot    string
	Peers          []string
}

// Functions

// LoadConfig takes in the path to the main config file of a
// dotted cluster in TOML syntax and places the values from
// the file in the corresponding struct.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	if _, err := toml.DecodeFile(configFile, conf); err != nil {
		return nil, fmt.Errorf("failed to read in TOML config file at '%s' with: %v", configFile, err)
	}

	// Base for absolutizing relative paths in the config
	// is the directory the config file lives in.
	baseDir, err := filepath.Abs(filepath.Dir(configFile))
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of config directory: %v", err)
	}

	if (conf.RootCertLoc != "") && !filepath.IsAbs(conf.RootCertLoc) {
		conf.RootCertLoc = filepath.Join(baseDir, conf.RootCertLoc)
	}

	for name, replica := range conf.Replicas {

		// A replica name in the section body wins over the
		// map key; otherwise the key is the name.
		if replica.Name == "" {
			replica.Name = name
		}

		// Every peer must be defined in the config.
		for _, peer := range replica.Peers {
			if _, found := conf.Replicas[peer]; !found {
				return nil, fmt.Errorf("replica '%s' references undefined peer '%s'", replica.Name, peer)
			}
		}

		if (replica.CertLoc != "") && !filepath.IsAbs(replica.CertLoc) {
			replica.CertLoc = filepath.Join(baseDir, replica.CertLoc)
		}

		if (replica.KeyLoc != "") && !filepath.IsAbs(replica.KeyLoc) {
			replica.KeyLoc = filepath.Join(baseDir, replica.KeyLoc)
		}

		if (replica.CRDTLogRoot != "") && !filepath.IsAbs(replica.CRDTLogRoot) {
			replica.CRDTLogRoot = filepath.Join(baseDir, replica.CRDTLogRoot)
		}

		// Assign replica config back to main config.
		delete(conf.Replicas, name)
		conf.Replicas[replica.Name] = replica
	}

	return conf, nil
}
