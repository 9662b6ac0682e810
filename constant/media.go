package constant

// HLS content types accepted by the surfaces.
const (
	MimeHLS      = "application/vnd.apple.mpegurl"
	MimeHLSAlias = "application/x-mpegURL"
)
