package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "authorized_token"

// DeviceIDHeaderName is the opaque client-supplied device tag forwarded to
// storage-layer filtering on authenticated vault calls.
const DeviceIDHeaderName = "X-Device-Id"
