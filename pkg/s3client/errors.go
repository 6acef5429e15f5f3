package s3client

import "fmt"

// Error carries the store operation that failed together with its target.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("s3.%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, bucket, key string, err error) error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err}
}
