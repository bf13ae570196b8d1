package common

// ReleaseGrantHeaderName is the gRPC metadata key used to carry the release
// grant issued to a beneficiary after consuming a release token.
const ReleaseGrantHeaderName = "release_grant"
