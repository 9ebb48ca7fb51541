package s3

import (
	"path"
	"strings"
)

const LocksPrefix = "locks"

// TopLevelPrefix returns the deployment prefix of a key: everything before
// the first "/" separator. A key without a separator is its own prefix.
func TopLevelPrefix(key string) string {
	key = strings.TrimPrefix(key, "/")
	if i := strings.Index(key, "/"); i >= 0 {
		return key[:i]
	}
	return key
}

func LockKey(name string) string {
	return path.Join(LocksPrefix, name+".lock")
}

// URI renders an s3:// location for a bucket and key. An empty key yields
// the bucket root without a trailing slash.
func URI(bucket, key string) string {
	key = strings.Trim(key, "/")
	if key == "" {
		return "s3://" + bucket
	}
	return "s3://" + bucket + "/" + key
}
