package itflow

import "context"

// Inventory endpoints.
const (
	EndpointDomainCreate      = "/domains/create.php"
	EndpointDomainUpdate      = "/domains/update.php"
	EndpointLocationCreate    = "/locations/create.php"
	EndpointNetworkCreate     = "/networks/create.php"
	EndpointSoftwareCreate    = "/software/create.php"
	EndpointCertificateCreate = "/certificates/create.php"
	EndpointCredentialCreate  = "/credentials/create.php"
	EndpointLogCreate         = "/logs/create.php"
	EndpointClientRead        = "/clients/read.php"
)

// DomainInput holds parameters for CreateDomain and UpdateDomain.
type DomainInput struct {
	DomainID    int64  `json:"domainId,omitempty"`
	Name        string `json:"name,omitempty"`
	Expire      string `json:"expire,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Registrar   string `json:"registrar,omitempty"`
	Webhost     string `json:"webhost,omitempty"`
	IP          string `json:"ip,omitempty"`
	NameServers string `json:"nameServers,omitempty"`
}

func (in DomainInput) apply(params map[string]any) {
	setIf(params, "domain_expire", in.Expire)
	setIf(params, "domain_notes", in.Notes)
	setIf(params, "domain_registrar", in.Registrar)
	setIf(params, "domain_webhost", in.Webhost)
	setIf(params, "domain_ip", in.IP)
	setIf(params, "domain_name_servers", in.NameServers)
}

// CreateDomain records a domain.
func (c *Client) CreateDomain(ctx context.Context, in DomainInput) *Envelope {
	params := c.withClient(map[string]any{"domain_name": in.Name})
	in.apply(params)
	return c.post(ctx, EndpointDomainCreate, params)
}

// UpdateDomain changes the non-empty fields of a domain.
func (c *Client) UpdateDomain(ctx context.Context, in DomainInput) *Envelope {
	params := c.withClient(map[string]any{"domain_id": in.DomainID})
	setIf(params, "domain_name", in.Name)
	in.apply(params)
	return c.post(ctx, EndpointDomainUpdate, params)
}

// LocationInput holds parameters for CreateLocation.
type LocationInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Country     string `json:"country,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Hours       string `json:"hours,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Primary     string `json:"primary,omitempty"`
}

// CreateLocation records a site.
func (c *Client) CreateLocation(ctx context.Context, in LocationInput) *Envelope {
	params := c.withClient(map[string]any{"location_name": in.Name})
	setIf(params, "location_description", in.Description)
	setIf(params, "location_country", in.Country)
	setIf(params, "location_address", in.Address)
	setIf(params, "location_city", in.City)
	setIf(params, "location_state", in.State)
	setIf(params, "location_zip", in.Zip)
	setIf(params, "location_phone", in.Phone)
	setIf(params, "location_hours", in.Hours)
	setIf(params, "location_notes", in.Notes)
	setIf(params, "location_primary", in.Primary)
	return c.post(ctx, EndpointLocationCreate, params)
}

// NetworkInput holds parameters for CreateNetwork.
type NetworkInput struct {
	Name      string `json:"name"`
	Network   string `json:"network"`
	Mask      string `json:"mask"`
	Gateway   string `json:"gateway,omitempty"`
	DHCPRange string `json:"dhcpRange,omitempty"`
	VLAN      int64  `json:"vlan,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// CreateNetwork records a network segment.
func (c *Client) CreateNetwork(ctx context.Context, in NetworkInput) *Envelope {
	params := c.withClient(map[string]any{
		"network_name": in.Name,
		"network":      in.Network,
		"network_mask": in.Mask,
	})
	setIf(params, "network_gateway", in.Gateway)
	setIf(params, "network_dhcp_range", in.DHCPRange)
	setIfPositive(params, "network_vlan", in.VLAN)
	setIf(params, "network_notes", in.Notes)
	return c.post(ctx, EndpointNetworkCreate, params)
}

// SoftwareInput holds parameters for CreateSoftware.
type SoftwareInput struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	LicenseType string `json:"licenseType,omitempty"`
	Key         string `json:"key,omitempty"`
	Seats       int64  `json:"seats,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CreateSoftware records a software license.
func (c *Client) CreateSoftware(ctx context.Context, in SoftwareInput) *Envelope {
	params := c.withClient(map[string]any{"software_name": in.Name})
	setIf(params, "software_type", in.Type)
	setIf(params, "software_license_type", in.LicenseType)
	setIf(params, "software_key", in.Key)
	setIfPositive(params, "software_seats", in.Seats)
	setIf(params, "software_notes", in.Notes)
	return c.post(ctx, EndpointSoftwareCreate, params)
}

// CertificateInput holds parameters for CreateCertificate.
type CertificateInput struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	IssuedBy string `json:"issuedBy,omitempty"`
	Expire   string `json:"expire,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CreateCertificate records a TLS certificate.
func (c *Client) CreateCertificate(ctx context.Context, in CertificateInput) *Envelope {
	params := c.withClient(map[string]any{
		"certificate_name":   in.Name,
		"certificate_domain": in.Domain,
	})
	setIf(params, "certificate_issued_by", in.IssuedBy)
	setIf(params, "certificate_expire", in.Expire)
	setIf(params, "certificate_notes", in.Notes)
	return c.post(ctx, EndpointCertificateCreate, params)
}

// CredentialInput holds parameters for CreateCredential.
type CredentialInput struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CreateCredential stores a credential.
func (c *Client) CreateCredential(ctx context.Context, in CredentialInput) *Envelope {
	params := c.withClient(map[string]any{"credential_name": in.Name})
	setIf(params, "credential_username", in.Username)
	setIf(params, "credential_password", in.Password)
	setIf(params, "credential_notes", in.Notes)
	return c.post(ctx, EndpointCredentialCreate, params)
}

// LogInput holds parameters for CreateLog.
type LogInput struct {
	Type        string `json:"type"`
	Action      string `json:"action"`
	Description string `json:"description"`
	AssetID     int64  `json:"assetId,omitempty"`
}

// CreateLog appends an audit log entry.
func (c *Client) CreateLog(ctx context.Context, in LogInput) *Envelope {
	params := c.withClient(map[string]any{
		"log_type":        in.Type,
		"log_action":      in.Action,
		"log_description": in.Description,
	})
	setIfPositive(params, "asset_id", in.AssetID)
	return c.post(ctx, EndpointLogCreate, params)
}

// GetClients lists every client visible to the API key.
func (c *Client) GetClients(ctx context.Context) *Envelope {
	return c.get(ctx, EndpointClientRead, map[string]any{})
}
