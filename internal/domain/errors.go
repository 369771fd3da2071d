package domain

import "errors"

// Service errors. Messages are sent to clients verbatim.
var (
	ErrUserNotFound           = errors.New("User not found")
	ErrUserAlreadyExists      = errors.New("Email is already registered!")
	ErrInvalidCredentials     = errors.New("Invalid email or password")
	ErrEmailNotVerified       = errors.New("Please verify your email before logging in")
	ErrVerificationTokenUsed  = errors.New("This verification link has already been used or has expired. If your email is not verified, please register again.")
	ErrRequestNotFound        = errors.New("Connection request not found")
	ErrReceiverNotFound       = errors.New("Receiver not found")
	ErrSelfConnection         = errors.New("Cannot send connection request to yourself")
	ErrConnectionExists       = errors.New("Connection request already exists or you are already connected")
	ErrReceiverUnavailable    = errors.New("Cannot send request to this user")
	ErrRequestProcessed       = errors.New("This request has already been processed")
	ErrNotRequestReceiver     = errors.New("You are not authorized to respond to this request")
	ErrInvalidRating          = errors.New("Rating must be between 1 and 5")
	ErrSelfRating             = errors.New("You cannot rate yourself")
	ErrEmptyPhoto             = errors.New("Please select a file")
	ErrPhotoTooLarge          = errors.New("File size must be less than 5MB")
	ErrUnsupportedPhotoFormat = errors.New("Please upload a valid image file")
)

// IsNotFound reports whether err means the addressed entity does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRequestNotFound)
}
