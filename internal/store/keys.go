package store

import (
	"strconv"
	"strings"
	"time"
)

// Badger key layout:
//
//	lecture:<id>                                   -> lecture JSON
//	idx:lecture:upload:<ts>:<id>                   -> empty
//	rating:<lectureID>:<ts>:<ratingID>             -> sample JSON
//	idx:rating:created:<ts>:<lectureID>:<ratingID> -> primary rating key
//
// <ts> is a fixed-width, order-preserving encoding of a timestamp, so
// lexicographic key order equals time order, ties broken by the id suffix.
const (
	lecturePrefix         = "lecture:"
	lectureUploadIdx      = "idx:lecture:upload:"
	ratingPrefix          = "rating:"
	ratingCreatedIdx      = "idx:rating:created:"
	keySep                = ":"
	reverseSeekSuffixByte = 0xFF
)

// orderedTime maps a timestamp onto 16 hex digits whose byte order matches
// time order, including instants before 1970.
func orderedTime(t time.Time) string {
	u := uint64(t.UnixNano()) ^ (1 << 63) //nolint:gosec // sign flip is the point
	s := strconv.FormatUint(u, 16)
	return strings.Repeat("0", 16-len(s)) + s
}

func lectureKey(id string) []byte {
	return []byte(lecturePrefix + id)
}

func lectureUploadKey(k Key) []byte {
	return []byte(lectureUploadIdx + orderedTime(k.UploadedAt) + keySep + k.ID)
}

// idFromUploadKey extracts the lecture id from an upload index key.
func idFromUploadKey(key []byte) string {
	rest := string(key[len(lectureUploadIdx):])
	_, id, _ := strings.Cut(rest, keySep)
	return id
}

func ratingLecturePrefix(lectureID string) []byte {
	return []byte(ratingPrefix + lectureID + keySep)
}

func ratingKey(lectureID string, createdAt time.Time, ratingID string) []byte {
	return []byte(ratingPrefix + lectureID + keySep + orderedTime(createdAt) + keySep + ratingID)
}

func ratingCreatedKey(lectureID string, createdAt time.Time, ratingID string) []byte {
	return []byte(ratingCreatedIdx + orderedTime(createdAt) + keySep + lectureID + keySep + ratingID)
}

// seekLast returns a key that sorts after every key sharing prefix, for
// positioning a reverse iterator.
func seekLast(prefix []byte) []byte {
	out := make([]byte, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = reverseSeekSuffixByte
	return out
}
