package constants

const Title = "netfile - request/response file transfer"

const (
	DEFAULT_PORT          = 6969      // Nice
	DEFAULT_CHUNK_SIZE    = 64 * 1024 // Bulk transfer chunk when none is given
	MAX_CHUNK_SIZE        = 64 << 20  // Refuse scratch buffers above 64M
	DEFAULT_INBOX_SIZE    = 256       // Control line buffer
	MAX_INBOX_SIZE        = 64 * 1024 // Control line buffer upper bound
	DEFAULT_NUM_WORKERS   = 8         // Concurrent sessions on the server
	DEFAULT_DSCP          = 0x0A      // QoS for high throughput
	DEFAULT_DEADLINE_SECS = 0         // Receive deadline, 0 disables
	HASH_BUFFER_SIZE      = 64 * 1024 // Checksum read buffer
)
