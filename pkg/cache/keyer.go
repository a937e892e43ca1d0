package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CloudKeyOpts identifies a generated point cloud.
type CloudKeyOpts struct {
	Shape string `json:"shape"`
	Count int    `json:"count"`
	Seed  uint64 `json:"seed"`
}

// ArtifactKeyOpts identifies a rendered image of a cloud.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
	Time   float64 `json:"time"`
	Color  string  `json:"color"`
	Style  string  `json:"style,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// CloudKey identifies a sampled cloud.
	CloudKey(opts CloudKeyOpts) string

	// ArtifactKey identifies a rendered artifact of the cloud with the given hash.
	ArtifactKey(cloudHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer names entries "<kind>:<sha256 of the options>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) CloudKey(opts CloudKeyOpts) string {
	return "cloud:" + digest(opts)
}

func (DefaultKeyer) ArtifactKey(cloudHash string, opts ArtifactKeyOpts) string {
	return "artifact:" + digest(struct {
		Cloud string `json:"cloud"`
		ArtifactKeyOpts
	}{cloudHash, opts})
}

// Hash is the hex SHA-256 of data. Pipelines use it to identify a cloud by
// content.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digest hashes the JSON form of v. Key option structs always marshal.
func digest(v any) string {
	b, _ := json.Marshal(v)
	return Hash(b)
}
