package sandbox

import _ "embed"

// The frame document and its script are embedded so the server binary is
// self-contained. frame.js is the browser-side counterpart of Frame.

//go:embed assets/frame.html
var FrameHTML []byte

//go:embed assets/frame.js
var FrameJS []byte
