package media

// image.Decode only knows about formats whose decoders have been
// registered; importing these packages registers the ones peers serve
// avatars in.

import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)
