// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"fmt"
	"io"
)

// BodyBytes buffers a payload given to Send, Attach or NewPlan so that
// every attempt of an execution sends the same bytes.
//
// A nil body yields a nil slice. Strings and byte slices are converted
// directly. A reader is drained, and closed if it is an io.Closer, so it
// is consumed exactly once no matter how many times the request is
// retried. Any other type is an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case *bytes.Buffer:
		return x.Bytes(), nil
	case io.Reader:
		return drain(x)
	default:
		return nil, fmt.Errorf("agent/request: unsupported body type %T", body)
	}
}

func drain(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if c, ok := r.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
