package ftpwire

import "io"

// ProgressWriter wraps a transfer sink and reports progress via a
// callback. Wrap the sink passed to List or Retr to observe how many
// bytes the transfer worker has delivered.
//
// Example:
//
//	pw := &ftpwire.ProgressWriter{
//	    Writer: file,
//	    Callback: func(bytesTransferred int64) {
//	        fmt.Printf("Downloaded: %d bytes\n", bytesTransferred)
//	    },
//	}
//	transfer, err := client.Retr("file.bin", pw, false)
type ProgressWriter struct {
	// Writer is the underlying sink
	Writer io.Writer

	// Callback is called after each Write with the total bytes transferred
	Callback func(bytesTransferred int64)

	// total tracks the total bytes written
	total int64
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += int64(n)
	if pw.Callback != nil && n > 0 {
		pw.Callback(pw.total)
	}
	return n, err
}
