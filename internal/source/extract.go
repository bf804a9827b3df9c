package source

import "time"

// Extract runs the extractor of platform over p. now anchors relative
// publish times. Unknown platforms yield no posts.
func Extract(platform Platform, p Payload, now time.Time) []Post {
	switch platform {
	case Reddit:
		return ExtractReddit(p)
	case Microblog:
		return ExtractMicroblog(p)
	case Video:
		return ExtractVideo(p, now.Unix())
	default:
		return nil
	}
}
