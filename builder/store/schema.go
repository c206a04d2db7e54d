package store

// BoltDB bucket names
const (
	BucketPosts = "posts" // {PostID} -> PostRecord

	// Global metadata
	BucketMeta  = "meta"  // schema_version
	BucketStats = "stats" // write_count, last_write

	// Meta keys
	KeySchemaVersion = "schema_version"
	KeyWriteCount    = "write_count"
	KeyLastWrite     = "last_write"
)

const (
	SchemaVersion = 1
	DBFileName    = "posts.db"
)

// AllBuckets returns all bucket names for initialization
func AllBuckets() []string {
	return []string{
		BucketPosts,
		BucketMeta,
		BucketStats,
	}
}
