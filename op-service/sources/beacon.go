package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethereum-optimism/op-fault-host/op-service/client"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// BeaconHTTPClient talks to an L1 beacon-node's REST API to fetch blob
// sidecars for a given slot, computed from the L1 block timestamp the hint
// carried.
type BeaconHTTPClient struct {
	http *client.BasicHTTPClient
}

func NewBeaconHTTPClient(http *client.BasicHTTPClient) *BeaconHTTPClient {
	return &BeaconHTTPClient{http: http}
}

type beaconBlobSidecarsResponse struct {
	Data []beaconBlobSidecar `json:"data"`
}

type beaconBlobSidecar struct {
	Index         string        `json:"index"`
	Blob          hexutil.Bytes `json:"blob"`
	KZGCommitment hexutil.Bytes `json:"kzg_commitment"`
	KZGProof      hexutil.Bytes `json:"kzg_proof"`
}

func (c *BeaconHTTPClient) sidecarsForSlot(ctx context.Context, slot uint64) ([]beaconBlobSidecar, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("/eth/v1/beacon/blob_sidecars/%d", slot), url.Values{})
	if err != nil {
		return nil, err
	}
	var res beaconBlobSidecarsResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode blob sidecars response: %w", err)
	}
	return res.Data, nil
}

// L1BeaconClientConfig holds the settings of an L1BeaconClient.
// FetchAllSidecars is stored but not read: the client always requests
// every sidecar of the slot and picks the asked-for indices from the
// response.
type L1BeaconClientConfig struct {
	FetchAllSidecars bool
}

// L1BeaconClient resolves IndexedBlobHash references (produced by the
// prefetcher's l1-blob hint) to full blob sidecars and raw blobs, by slot
// number computed from the L1 block timestamp.
type L1BeaconClient struct {
	beacon *BeaconHTTPClient
	cfg    L1BeaconClientConfig
}

func NewL1BeaconClient(beacon *BeaconHTTPClient, cfg L1BeaconClientConfig) *L1BeaconClient {
	return &L1BeaconClient{beacon: beacon, cfg: cfg}
}

func (c *L1BeaconClient) GetBlobSidecars(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.BlobSidecar, error) {
	slot := ref.Time / 12 // Ethereum mainnet slot time; beacon genesis offset is out of scope here.
	sidecars, err := c.beacon.sidecarsForSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob sidecars for slot %d: %w", slot, err)
	}
	byIndex := make(map[uint64]beaconBlobSidecar, len(sidecars))
	for _, s := range sidecars {
		idx, err := strconv.ParseUint(s.Index, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sidecar index %q: %w", s.Index, err)
		}
		byIndex[idx] = s
	}
	out := make([]*eth.BlobSidecar, 0, len(hashes))
	for _, h := range hashes {
		s, ok := byIndex[h.Index]
		if !ok {
			return nil, fmt.Errorf("missing blob sidecar at index %d for slot %d", h.Index, slot)
		}
		sidecar := &eth.BlobSidecar{Index: h.Index}
		copy(sidecar.KZGCommitment[:], s.KZGCommitment)
		copy(sidecar.KZGProof[:], s.KZGProof)
		copy(sidecar.Blob[:], s.Blob)
		out = append(out, sidecar)
	}
	return out, nil
}

func (c *L1BeaconClient) GetBlobs(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.Blob, error) {
	sidecars, err := c.GetBlobSidecars(ctx, ref, hashes)
	if err != nil {
		return nil, err
	}
	out := make([]*eth.Blob, len(sidecars))
	for i, s := range sidecars {
		out[i] = &s.Blob
	}
	return out, nil
}
