// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses an HTML document into a *goquery.Document. It is not
// registered by default since HTML responses are normally consumed as
// text. To enable it:
//
//	codec.Default.SetParser(codec.HTML, codec.ParseHTML)
func ParseHTML(data []byte) (interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return doc, nil
}
