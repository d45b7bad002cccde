// Package otp provides helpers for generating and validating one-time
// passwords: random numeric codes for out-of-band delivery (SMS, email,
// voice) and TOTP (time-based OTP) for authenticator apps.
//
// Typical usage: mint a NumericCode for a delivery channel, or generate a
// TOTP secret and provisioning URI for an authenticator app and validate
// user-provided codes against it.
package otp
