package documents

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const loaderLogPrefix = "documents:loader"

// tableFile is the on-disk shape of the publish table.
type tableFile struct {
	Documents []Kind `yaml:"documents"`
}

// LoadKinds reads the publish table from the first readable path, then from
// DOCUMENTS_FILE, then the default locations. When none parses it falls back
// to DefaultKinds.
func LoadKinds(paths ...string) ([]Kind, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("DOCUMENTS_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/documents.yaml", "documents.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var table tableFile
		if err := yaml.Unmarshal(data, &table); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse documents file %s: %v", loaderLogPrefix, p, err))
			continue
		}
		if len(table.Documents) == 0 {
			slog.Warn(fmt.Sprintf("%s - Documents file %s lists no documents", loaderLogPrefix, p))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded %d document kinds from %s", loaderLogPrefix, len(table.Documents), p))
		return table.Documents, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default document kinds", loaderLogPrefix))
	return DefaultKinds(), nil
}

// DefaultKinds is the built-in publish table.
func DefaultKinds() []Kind {
	return []Kind{
		{Key: "general", Capability: CapabilitySystemInfo, NameTemplate: "General Info - {account}"},
		{Key: "tickets", Capability: CapabilityTicketSummary, NameTemplate: "Ticket Summary - {account}"},
		{Key: "contacts", Capability: CapabilityContacts, NameTemplate: "Contacts - {account}"},
		{Key: "clients", Capability: CapabilityClients, NameTemplate: "Clients - {account}"},
		{Key: "backup", Capability: CapabilityBackupStatus, NameTemplate: "Backup Status - {account}"},
	}
}
