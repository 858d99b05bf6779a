package record

// Magic is the fixed byte sequence every log begins with.
var Magic = [6]byte{'m', 'e', 'm', 't', 'r', 'c'}

// CurrentHeaderVersion is the only header version this decoder accepts.
// Non-goals per the format's design: no forward/backward compatibility
// beyond this exact check.
const CurrentHeaderVersion uint32 = 1

// Stats is the fixed-width statistics block embedded in the header.
type Stats struct {
	NAllocations uint64
	NFrames      uint64
	StartTime    int64
	EndTime      int64
}

// Header is the decoded, fixed-layout prefix of every log, read once at
// Open.
type Header struct {
	Version      uint32
	NativeTraces bool
	Stats        Stats
	CommandLine  string
	Pid          int64
}
