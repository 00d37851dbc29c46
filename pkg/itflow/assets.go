package itflow

import "context"

// Asset endpoints.
const (
	EndpointAssetCreate = "/assets/create.php"
	EndpointAssetRead   = "/assets/read.php"
	EndpointAssetUpdate = "/assets/update.php"
)

// CreateAssetInput holds parameters for CreateAsset.
type CreateAssetInput struct {
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	IP             string `json:"ip,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Make           string `json:"make,omitempty"`
	Model          string `json:"model,omitempty"`
	Serial         string `json:"serial,omitempty"`
	OS             string `json:"os,omitempty"`
	MAC            string `json:"mac,omitempty"`
	Status         string `json:"status,omitempty"`
	PurchaseDate   string `json:"purchaseDate,omitempty"`
	WarrantyExpire string `json:"warrantyExpire,omitempty"`
	InstallDate    string `json:"installDate,omitempty"`
}

// CreateAsset registers an asset; Type defaults to Server.
func (c *Client) CreateAsset(ctx context.Context, in CreateAssetInput) *Envelope {
	assetType := in.Type
	if assetType == "" {
		assetType = "Server"
	}
	params := c.withClient(map[string]any{
		"asset_name": in.Name,
		"asset_type": assetType,
	})
	setIf(params, "asset_ip", in.IP)
	setIf(params, "asset_notes", in.Notes)
	setIf(params, "asset_make", in.Make)
	setIf(params, "asset_model", in.Model)
	setIf(params, "asset_serial", in.Serial)
	setIf(params, "asset_os", in.OS)
	setIf(params, "asset_mac", in.MAC)
	setIf(params, "asset_status", in.Status)
	setIf(params, "asset_purchase_date", in.PurchaseDate)
	setIf(params, "asset_warranty_expire", in.WarrantyExpire)
	setIf(params, "install_date", in.InstallDate)
	return c.post(ctx, EndpointAssetCreate, params)
}

// UpdateAsset changes an asset's address or notes.
func (c *Client) UpdateAsset(ctx context.Context, assetID int64, ip, notes string) *Envelope {
	params := c.withClient(map[string]any{"asset_id": assetID})
	setIf(params, "asset_ip", ip)
	setIf(params, "asset_notes", notes)
	return c.post(ctx, EndpointAssetUpdate, params)
}

// GetAssets lists the account's assets.
func (c *Client) GetAssets(ctx context.Context) *Envelope {
	return c.get(ctx, EndpointAssetRead, c.withClient(nil))
}
