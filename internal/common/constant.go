package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// DescriptionPreviewLength is the number of runes shown in list views.
const DescriptionPreviewLength = 100
