package itflow

import (
	"context"
	"net/http"
	"testing"
)

const inventoryTestPrefix = "itflow:inventory_test"

func TestInventoryOperations_Params(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *Client)
		wantMethod string
		wantPath   string
		want       map[string]any
		absent     []string
	}{
		{
			name:       "create asset defaults type",
			call:       func(c *Client) { c.CreateAsset(context.Background(), CreateAssetInput{Name: "edge-01", IP: "10.0.0.5"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointAssetCreate,
			want:       map[string]any{"asset_name": "edge-01", "asset_type": "Server", "asset_ip": "10.0.0.5"},
			absent:     []string{"asset_notes", "asset_make", "asset_model", "asset_serial", "asset_os", "asset_mac", "asset_status", "asset_purchase_date", "asset_warranty_expire", "install_date"},
		},
		{
			name:       "update asset",
			call:       func(c *Client) { c.UpdateAsset(context.Background(), 4, "", "moved rack") },
			wantMethod: http.MethodPost,
			wantPath:   EndpointAssetUpdate,
			want:       map[string]any{"asset_id": float64(4), "asset_notes": "moved rack"},
			absent:     []string{"asset_ip"},
		},
		{
			name:       "get assets",
			call:       func(c *Client) { c.GetAssets(context.Background()) },
			wantMethod: http.MethodGet,
			wantPath:   EndpointAssetRead,
		},
		{
			name:       "create domain",
			call:       func(c *Client) { c.CreateDomain(context.Background(), DomainInput{Name: "example.test", Registrar: "Gandi"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointDomainCreate,
			want:       map[string]any{"domain_name": "example.test", "domain_registrar": "Gandi"},
			absent:     []string{"domain_id", "domain_expire", "domain_notes", "domain_webhost", "domain_ip", "domain_name_servers"},
		},
		{
			name:       "update domain",
			call:       func(c *Client) { c.UpdateDomain(context.Background(), DomainInput{DomainID: 8, Expire: "2025-01-01"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointDomainUpdate,
			want:       map[string]any{"domain_id": float64(8), "domain_expire": "2025-01-01"},
			absent:     []string{"domain_name", "domain_registrar"},
		},
		{
			name:       "create location",
			call:       func(c *Client) { c.CreateLocation(context.Background(), LocationInput{Name: "HQ", City: "Oslo"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointLocationCreate,
			want:       map[string]any{"location_name": "HQ", "location_city": "Oslo"},
			absent:     []string{"location_description", "location_country", "location_address", "location_state", "location_zip", "location_phone", "location_hours", "location_notes", "location_primary"},
		},
		{
			name: "create network",
			call: func(c *Client) {
				c.CreateNetwork(context.Background(), NetworkInput{Name: "LAN", Network: "10.0.0.0", Mask: "255.255.255.0", VLAN: 20})
			},
			wantMethod: http.MethodPost,
			wantPath:   EndpointNetworkCreate,
			want:       map[string]any{"network_name": "LAN", "network": "10.0.0.0", "network_mask": "255.255.255.0", "network_vlan": float64(20)},
			absent:     []string{"network_gateway", "network_dhcp_range", "network_notes"},
		},
		{
			name:       "create software",
			call:       func(c *Client) { c.CreateSoftware(context.Background(), SoftwareInput{Name: "Office", Seats: 5}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointSoftwareCreate,
			want:       map[string]any{"software_name": "Office", "software_seats": float64(5)},
			absent:     []string{"software_type", "software_license_type", "software_key", "software_notes"},
		},
		{
			name:       "create certificate",
			call:       func(c *Client) { c.CreateCertificate(context.Background(), CertificateInput{Name: "web", Domain: "example.test"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointCertificateCreate,
			want:       map[string]any{"certificate_name": "web", "certificate_domain": "example.test"},
			absent:     []string{"certificate_issued_by", "certificate_expire", "certificate_notes"},
		},
		{
			name:       "create credential",
			call:       func(c *Client) { c.CreateCredential(context.Background(), CredentialInput{Name: "router", Username: "admin"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointCredentialCreate,
			want:       map[string]any{"credential_name": "router", "credential_username": "admin"},
			absent:     []string{"credential_password", "credential_notes"},
		},
		{
			name:       "create log",
			call:       func(c *Client) { c.CreateLog(context.Background(), LogInput{Type: "Bridge", Action: "Publish", Description: "ok"}) },
			wantMethod: http.MethodPost,
			wantPath:   EndpointLogCreate,
			want:       map[string]any{"log_type": "Bridge", "log_action": "Publish", "log_description": "ok"},
			absent:     []string{"asset_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeITFlow(t, okResponse)
			tt.call(fake.client())

			calls := fake.Calls()
			if len(calls) != 1 {
				t.Fatalf("%s - expected one call, got %d", inventoryTestPrefix, len(calls))
			}
			call := calls[0]
			if call.Method != tt.wantMethod || call.Path != tt.wantPath {
				t.Fatalf("%s - call = %s %s, want %s %s", inventoryTestPrefix, call.Method, call.Path, tt.wantMethod, tt.wantPath)
			}

			params := call.Body
			if call.Method == http.MethodGet {
				params = map[string]any{}
				for k, v := range call.Query {
					params[k] = v
				}
			}
			if params["client_id"] != "9" {
				t.Errorf("%s - client_id = %v, want 9", inventoryTestPrefix, params["client_id"])
			}
			for k, v := range tt.want {
				if params[k] != v {
					t.Errorf("%s - %s = %v, want %v", inventoryTestPrefix, k, params[k], v)
				}
			}
			for _, k := range tt.absent {
				if _, ok := params[k]; ok {
					t.Errorf("%s - unset field %s was sent", inventoryTestPrefix, k)
				}
			}
		})
	}
}

func TestGetClients_NoClientID(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	fake.client().GetClients(context.Background())

	call := fake.Calls()[0]
	if call.Method != http.MethodGet || call.Path != EndpointClientRead {
		t.Fatalf("%s - unexpected call %s %s", inventoryTestPrefix, call.Method, call.Path)
	}
	if _, ok := call.Query["client_id"]; ok {
		t.Errorf("%s - GetClients must not scope by client_id", inventoryTestPrefix)
	}
	if call.Query["api_key"] != "secret" {
		t.Errorf("%s - api_key missing from %v", inventoryTestPrefix, call.Query)
	}
}
