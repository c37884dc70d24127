// Package protocol defines the commands exchanged with clients and their
// envelope encoding.
//
// An envelope is the JSON object {"type": <tag>, "body": <payload>},
// serialised to UTF-8 and then base64 (standard alphabet, padded). Each
// envelope travels in one binary websocket message. Commands without a
// payload omit "body".
package protocol
