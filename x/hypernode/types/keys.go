package types

import (
	"encoding/binary"
	"fmt"

	"github.com/cosmos/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

const (
	// ModuleName defines the module name
	ModuleName = "hypernode"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Record address tags.
const (
	TagJob            = "job"
	TagNode           = "node"
	TagStake          = "stake"
	TagSplitterConfig = "splitter_config"
	TagRewardPool     = "reward_pool"
)

var (
	// JobKeyPrefix is the prefix for job records
	JobKeyPrefix = []byte{0x01}

	// NodeKeyPrefix is the prefix for node records
	NodeKeyPrefix = []byte{0x02}

	// StakeKeyPrefix is the prefix for stake positions
	StakeKeyPrefix = []byte{0x03}

	// SplitterConfigKey stores the singleton splitter config
	SplitterConfigKey = []byte{0x04}

	// RewardPoolKey stores the singleton reward pool
	RewardPoolKey = []byte{0x05}

	// SlashRecordKeyPrefix is the prefix for slash records
	SlashRecordKeyPrefix = []byte{0x06}

	// NextSlashIDKey is the key for the next slash ID counter
	NextSlashIDKey = []byte{0x07}

	// JobsByNodePrefix indexes assigned jobs by node address
	JobsByNodePrefix = []byte{0x08}
)

// AddressLength is the size of a derived record address.
const AddressLength = 32

// Address deterministically identifies a ledger record.
type Address [AddressLength]byte

// DeriveAddress hashes tag, owner and id into a record address. Identical
// inputs always yield the same address.
func DeriveAddress(tag string, owner PublicKey, id string) Address {
	h := sha3.New256()
	h.Write([]byte(tag))
	h.Write(owner[:])
	h.Write([]byte(id))

	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// JobAddress returns the address of a client's job.
func JobAddress(client PublicKey, jobID string) Address {
	return DeriveAddress(TagJob, client, jobID)
}

// NodeAddress returns the address of an operator's node.
func NodeAddress(owner PublicKey, nodeID string) Address {
	return DeriveAddress(TagNode, owner, nodeID)
}

// StakeAddress returns the address of a stake position.
func StakeAddress(owner PublicKey, stakeID string) Address {
	return DeriveAddress(TagStake, owner, stakeID)
}

// SplitterConfigAddress returns the address of the singleton splitter config.
func SplitterConfigAddress() Address {
	return DeriveAddress(TagSplitterConfig, PublicKey{}, "")
}

// RewardPoolAddress returns the address of the singleton reward pool.
func RewardPoolAddress() Address {
	return DeriveAddress(TagRewardPool, PublicKey{}, "")
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a base58 record address.
func ParseAddress(s string) (Address, error) {
	raw := base58.Decode(s)
	if len(raw) != AddressLength {
		return Address{}, fmt.Errorf("invalid record address %q", s)
	}
	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

// JobKey returns the store key for a job
func JobKey(addr Address) []byte {
	return append(append([]byte{}, JobKeyPrefix...), addr[:]...)
}

// NodeKey returns the store key for a node
func NodeKey(addr Address) []byte {
	return append(append([]byte{}, NodeKeyPrefix...), addr[:]...)
}

// StakeKey returns the store key for a stake position
func StakeKey(addr Address) []byte {
	return append(append([]byte{}, StakeKeyPrefix...), addr[:]...)
}

// SlashRecordKey returns the store key for a slash record
func SlashRecordKey(id uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	return append(append([]byte{}, SlashRecordKeyPrefix...), bz...)
}

// JobsByNodeKey indexes a job under the node it is assigned to
func JobsByNodeKey(node, job Address) []byte {
	key := append(append([]byte{}, JobsByNodePrefix...), node[:]...)
	return append(key, job[:]...)
}

// JobsByNodePrefixKey returns the iteration prefix for a node's jobs
func JobsByNodePrefixKey(node Address) []byte {
	return append(append([]byte{}, JobsByNodePrefix...), node[:]...)
}
