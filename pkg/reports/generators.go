package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/morezero/itflow-bridge/pkg/documents"
	"github.com/morezero/itflow-bridge/pkg/itflow"
	"github.com/morezero/itflow-bridge/pkg/tickets"
)

const generatorsLogPrefix = "reports:generators"

// placeholderContact is the name ITFlow gives to redacted contacts.
const placeholderContact = "*****"

// TicketSource aggregates a ticket view. *tickets.Aggregator satisfies it.
type TicketSource interface {
	AggregateView(ctx context.Context, v tickets.View) *tickets.AggregationResult
}

// Directory lists the account's contacts and clients. *itflow.Client satisfies it.
type Directory interface {
	GetContacts(ctx context.Context) *itflow.Envelope
	GetClients(ctx context.Context) *itflow.Envelope
}

// Generator renders every report kind for one account.
type Generator struct {
	account   string
	host      HostProbe
	tickets   TicketSource
	directory Directory
	installed string
	latest    string
	backupDir string
	now       func() time.Time
}

// NewGeneratorParams holds parameters for NewGenerator.
type NewGeneratorParams struct {
	AccountName string
	// Host defaults to SystemProbe{}.
	Host             HostProbe
	Tickets          TicketSource
	Directory        Directory
	InstalledVersion string
	LatestVersion    string
	// BackupDir empty makes the backup report not applicable.
	BackupDir string
	Now       func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(params NewGeneratorParams) *Generator {
	h := params.Host
	if h == nil {
		h = SystemProbe{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		account:   params.AccountName,
		host:      h,
		tickets:   params.Tickets,
		directory: params.Directory,
		installed: params.InstalledVersion,
		latest:    params.LatestVersion,
		backupDir: params.BackupDir,
		now:       now,
	}
}

// Capabilities maps every capability to its report.
func (g *Generator) Capabilities() map[documents.Capability]documents.GenerateFunc {
	return map[documents.Capability]documents.GenerateFunc{
		documents.CapabilitySystemInfo:    g.SystemInfo,
		documents.CapabilityTicketSummary: g.TicketSummary,
		documents.CapabilityContacts:      g.Contacts,
		documents.CapabilityClients:       g.Clients,
		documents.CapabilityBackupStatus:  g.BackupStatus,
	}
}

func (g *Generator) stamp() string {
	return g.now().Format("2006-01-02 15:04:05")
}

// SystemInfo reports host resources and the bridge version.
func (g *Generator) SystemInfo(ctx context.Context) (string, error) {
	snap, err := g.host.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	d := newDocument(fmt.Sprintf("System Information - %s", g.account), g.stamp())
	d.section("Bridge")
	t := newTable("Item", "Value")
	t.row("Account", g.account)
	t.row("Version", VersionLine(g.installed, g.latest))
	d.table(t)

	d.section("Host")
	t = newTable("Item", "Value")
	t.row("Hostname", snap.Hostname)
	t.row("Platform", fmt.Sprintf("%s %s", snap.Platform, snap.PlatformVersion))
	t.row("Kernel", snap.KernelVersion)
	t.row("Uptime", snap.Uptime.Truncate(time.Minute).String())
	d.table(t)

	d.section("Resources")
	t = newTable("Resource", "Used", "Total", "Usage")
	t.row("CPU", fmt.Sprintf("%d cores", snap.CPUCount), "-", fmt.Sprintf("%.1f%%", snap.CPUPercent))
	t.row("Memory", HumanBytes(snap.MemoryUsed), HumanBytes(snap.MemoryTotal), fmt.Sprintf("%.1f%%", snap.MemoryPercent))
	t.row("Disk "+snap.DiskPath, HumanBytes(snap.DiskUsed), HumanBytes(snap.DiskTotal), fmt.Sprintf("%.1f%%", snap.DiskPercent))
	d.table(t)

	return d.html()
}

// TicketSummary lists the account's open tickets.
func (g *Generator) TicketSummary(ctx context.Context) (string, error) {
	if g.tickets == nil {
		return "", fmt.Errorf("%s - no ticket source configured", generatorsLogPrefix)
	}
	view, _ := tickets.LookupView(tickets.ViewOpen)
	res := g.tickets.AggregateView(ctx, view)
	if len(res.FailedCodes) == len(view.Codes) {
		return "", fmt.Errorf("%s - every ticket query failed", generatorsLogPrefix)
	}

	d := newDocument(fmt.Sprintf("Open Tickets - %s", g.account), g.stamp())
	counts := map[string]int{}
	for _, r := range res.Records {
		counts[r.CanonicalStatus]++
	}
	d.para("%d open tickets.", res.Total)

	if len(counts) > 0 {
		d.section("By status")
		statuses := make([]string, 0, len(counts))
		for s := range counts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		t := newTable("Status", "Count")
		for _, s := range statuses {
			t.row(s, fmt.Sprintf("%d", counts[s]))
		}
		d.table(t)
	}

	if res.Total > 0 {
		d.section("Tickets")
		t := newTable("ID", "Subject", "Priority", "Status", "Created")
		for _, r := range res.Records {
			t.row(fmt.Sprintf("%d", r.ID), r.Subject, r.Priority, r.CanonicalStatus, r.CreatedAt)
		}
		d.table(t)
	}
	if len(res.FailedCodes) > 0 {
		d.para("Incomplete: %d of %d queries failed.", len(res.FailedCodes), len(view.Codes))
	}
	return d.html()
}

// Contacts lists the account's contacts, leaving out redacted entries.
func (g *Generator) Contacts(ctx context.Context) (string, error) {
	if g.directory == nil {
		return "", fmt.Errorf("%s - no directory configured", generatorsLogPrefix)
	}
	env := g.directory.GetContacts(ctx)
	if !env.Success {
		return "", fmt.Errorf("%s - failed to fetch contacts: %s", generatorsLogPrefix, env.Message)
	}

	var rows []gjson.Result
	for _, c := range env.Items() {
		if c.Get("contact_name").String() == placeholderContact {
			continue
		}
		rows = append(rows, c)
	}

	d := newDocument(fmt.Sprintf("Contacts - %s", g.account), g.stamp())
	d.para("%d contacts.", len(rows))
	if len(rows) > 0 {
		t := newTable("Name", "Title", "Email", "Phone", "Mobile")
		for _, c := range rows {
			t.row(
				c.Get("contact_name").String(),
				c.Get("contact_title").String(),
				c.Get("contact_email").String(),
				c.Get("contact_phone").String(),
				c.Get("contact_mobile").String(),
			)
		}
		d.table(t)
	}
	return d.html()
}

// Clients lists the clients visible to the API key.
func (g *Generator) Clients(ctx context.Context) (string, error) {
	if g.directory == nil {
		return "", fmt.Errorf("%s - no directory configured", generatorsLogPrefix)
	}
	env := g.directory.GetClients(ctx)
	if !env.Success {
		return "", fmt.Errorf("%s - failed to fetch clients: %s", generatorsLogPrefix, env.Message)
	}

	items := env.Items()
	d := newDocument(fmt.Sprintf("Clients - %s", g.account), g.stamp())
	d.para("%d clients.", len(items))
	if len(items) > 0 {
		t := newTable("ID", "Name", "Type", "Website")
		for _, c := range items {
			t.row(
				c.Get("client_id").String(),
				c.Get("client_name").String(),
				c.Get("client_type").String(),
				c.Get("client_website").String(),
			)
		}
		d.table(t)
	}
	return d.html()
}

// backupFile is one entry of the backup directory.
type backupFile struct {
	name    string
	size    int64
	modTime time.Time
}

// BackupStatus reports the newest files in the backup directory. It returns
// documents.ErrNotApplicable when no backup directory is configured.
func (g *Generator) BackupStatus(_ context.Context) (string, error) {
	if g.backupDir == "" {
		return "", documents.ErrNotApplicable
	}
	entries, err := os.ReadDir(g.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return "", documents.ErrNotApplicable
	}
	if err != nil {
		return "", fmt.Errorf("%s - failed to read %s: %w", generatorsLogPrefix, g.backupDir, err)
	}

	var files []backupFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{name: e.Name(), size: info.Size(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	d := newDocument(fmt.Sprintf("Backup Status - %s", g.account), g.stamp())
	d.para("Directory: `%s`", filepath.Clean(g.backupDir))
	if len(files) == 0 {
		d.para("No backups found.")
		return d.html()
	}

	latest := files[0]
	age := g.now().Sub(latest.modTime).Truncate(time.Minute)
	d.para("%d backups. Latest is %s, %s old.", len(files), latest.name, age)

	const listed = 10
	if len(files) > listed {
		files = files[:listed]
	}
	t := newTable("File", "Size", "Modified")
	for _, f := range files {
		t.row(f.name, HumanBytes(uint64(f.size)), f.modTime.Format("2006-01-02 15:04:05"))
	}
	d.table(t)
	return d.html()
}
