// Package protocol implements the ADTP message model.
//
// ADTP is a request/response protocol carried over a reliable byte stream.
// Every message is a single UTF-8 JSON object with fixed field names.
//
// # Requests
//
//	{
//	  "version": "ADTP/2.0",
//	  "method":  "create",
//	  "headers": {"content-type": "text/plain"},
//	  "uri":     "/items",
//	  "content": "Hello World"
//	}
//
// Methods: check, read, create, update, append, destroy, auth.
//
// # Responses
//
//	{
//	  "version": "ADTP/2.0",
//	  "status":  "ok",
//	  "headers": {},
//	  "content": ""
//	}
//
// Statuses: switch-protocols, ok, pending, redirect, denied, bad-request,
// unauthorized, not-found, too-many-requests, internal-error.
//
// # Headers
//
// Headers are an ordered string map. Keys are case-sensitive and unique;
// adding a key twice is an error rather than an overwrite. Build emits headers
// in insertion order and Parse restores that order.
//
// The headers nonce, tag, content-type and request-content-type are reserved
// for the secure channel and the handshake.
//
// # Content
//
// Content is always text. Binary payloads must be encoded (base64) before
// they are assigned to a message.
//
// # Compatibility
//
// The version tag is carried as an opaque string so that messages from newer
// peers still decode. Use Version.Supported to check whether the tag is one
// this implementation speaks.
package protocol
