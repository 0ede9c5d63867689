package verb

const (
	GET  = "GET"  // Client: request file
	QUIT = "QUIT" // Client: end session
	OK   = "+OK"  // Server: file follows
	ERR  = "-ERR" // Server: request denied
)

// CRLF terminates every control line.
const CRLF = "\r\n"
