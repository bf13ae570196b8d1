package rpc

import "time"

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Beneficiary struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Language string  `json:"language,omitempty"`
	Address  Address `json:"address"`
	Status   string  `json:"status,omitempty"`
}

// Asset is the metadata of one encrypted blob. SizeBytes is the ciphertext
// length. The json tags are only used for command-line output.
type Asset struct {
	ID          string `json:"id,omitempty"`
	VaultID     string `json:"vaultId"`
	StoragePath string `json:"storagePath"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Checksum    string `json:"checksum"`
	SizeBytes   int64  `json:"sizeBytes"`
	Category    string `json:"category,omitempty"`
	Format      string `json:"format"`
	ChunkSize   int    `json:"chunkSize,omitempty"`
}

type CreateVaultRequest struct {
	UserID                 string        `json:"userId"`
	OwnerEmail             string        `json:"ownerEmail"`
	Language               string        `json:"language,omitempty"`
	EncryptionHint         string        `json:"encryptionHint,omitempty"`
	HeartbeatFrequencyDays int           `json:"heartbeatFrequencyDays"`
	GracePeriodDays        int           `json:"gracePeriodDays"`
	PhysicalDelivery       bool          `json:"physicalDelivery"`
	RecoveryCiphertext     []byte        `json:"recoveryCiphertext"`
	RecoverySalt           []byte        `json:"recoverySalt"`
	RecoveryNonce          []byte        `json:"recoveryNonce"`
	Beneficiaries          []Beneficiary `json:"beneficiaries"`
}

type CreateVaultResponse struct {
	VaultID       string        `json:"vaultId"`
	Status        string        `json:"status"`
	Beneficiaries []Beneficiary `json:"beneficiaries"`
}

type ConfirmHeartbeatRequest struct {
	VaultID string `json:"vaultId,omitempty"`
	// LinkToken is the signed token from a warning email; when set it
	// replaces VaultID.
	LinkToken string `json:"linkToken,omitempty"`
}

type ConfirmHeartbeatResponse struct {
	VaultID string `json:"vaultId"`
}

type RequestUploadRequest struct {
	VaultID string `json:"vaultId"`
}

type RequestUploadResponse struct {
	StoragePath string `json:"storagePath"`
	URL         string `json:"url"`
}

type RegisterAssetRequest struct {
	Asset    Asset  `json:"asset"`
	Replaces string `json:"replaces,omitempty"`
}

type RegisterAssetResponse struct {
	Asset Asset `json:"asset"`
}

type ListAssetsRequest struct {
	VaultID string `json:"vaultId"`
}

type ListAssetsResponse struct {
	Assets []Asset `json:"assets"`
}

type RunReleaseCycleRequest struct{}

type BeneficiaryResult struct {
	BeneficiaryID  string `json:"beneficiaryId"`
	Outcome        string `json:"outcome"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Error          string `json:"error,omitempty"`
}

type VaultResult struct {
	VaultID       string              `json:"vaultId"`
	Outcome       string              `json:"outcome"`
	Error         string              `json:"error,omitempty"`
	Beneficiaries []BeneficiaryResult `json:"beneficiaries,omitempty"`
}

type PhaseSummary struct {
	Processed int           `json:"processed"`
	Results   []VaultResult `json:"results"`
}

type RunReleaseCycleResponse struct {
	WarningPhase PhaseSummary `json:"warningPhase"`
	ReleasePhase PhaseSummary `json:"releasePhase"`
}

type ReleaseTokenRequest struct {
	Token string `json:"token"`
}

type VerifyReleaseTokenResponse struct {
	VaultID         string    `json:"vaultId"`
	BeneficiaryName string    `json:"beneficiaryName"`
	EncryptionHint  string    `json:"encryptionHint,omitempty"`
	TokenExpiresAt  time.Time `json:"tokenExpiresAt"`
	Assets          []Asset   `json:"assets"`
}

type ConsumeReleaseTokenResponse struct {
	Grant     string    `json:"grant"`
	VaultID   string    `json:"vaultId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type GetAssetDownloadRequest struct {
	AssetID string `json:"assetId"`
}

type GetAssetDownloadResponse struct {
	Asset Asset  `json:"asset"`
	URL   string `json:"url"`
}

type GetRecoveryMaterialRequest struct{}

type GetRecoveryMaterialResponse struct {
	VaultID        string `json:"vaultId"`
	Ciphertext     []byte `json:"ciphertext"`
	Salt           []byte `json:"salt"`
	Nonce          []byte `json:"nonce"`
	EncryptionHint string `json:"encryptionHint,omitempty"`
}
