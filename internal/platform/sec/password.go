// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"unicode"
	"unicode/utf8"
)

// # Credential Policy

const (
	// MinPasswordLength is the minimum number of characters of any credential.
	MinPasswordLength = 6

	// GeneratedPasswordLength is the length of credentials issued by resets.
	GeneratedPasswordLength = 8
)

const (
	upperAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet   = "abcdefghijklmnopqrstuvwxyz"
	digitAlphabet   = "0123456789"
	symbolAlphabet  = "!@#$%&*"
	passwordCharset = upperAlphabet + lowerAlphabet + digitAlphabet + symbolAlphabet
)

// Policy violations returned by [CheckPasswordPolicy].
var (
	ErrPasswordTooShort  = fmt.Errorf("must be at least %d characters", MinPasswordLength)
	ErrPasswordNoUpper   = errors.New("must contain an uppercase letter")
	ErrPasswordNoLower   = errors.New("must contain a lowercase letter")
	ErrPasswordNoDigit   = errors.New("must contain a digit")
	ErrPasswordNoSymbol  = errors.New("must contain a symbol")
	errGeneratedTooShort = errors.New("sec: generated password length below policy minimum")
)

// CheckPasswordPolicy reports the first rule the candidate violates, or nil.
//
// Rules: minimum length, at least one uppercase letter, one lowercase letter,
// one digit and one character outside letters and digits.
func CheckPasswordPolicy(candidate string) error {
	if utf8.RuneCountInString(candidate) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasLower:
		return ErrPasswordNoLower
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSymbol:
		return ErrPasswordNoSymbol
	}
	return nil
}

// GeneratePassword returns a random credential of the given length that
// satisfies [CheckPasswordPolicy]. One character is drawn from each class,
// the rest from the full charset, and the result is shuffled.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", errGeneratedTooShort
	}

	result := make([]byte, 0, length)
	for _, alphabet := range []string{upperAlphabet, lowerAlphabet, digitAlphabet, symbolAlphabet} {
		c, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		result = append(result, c)
	}

	for len(result) < length {
		c, err := randomChar(passwordCharset)
		if err != nil {
			return "", err
		}
		result = append(result, c)
	}

	// Fisher-Yates with crypto/rand
	for i := len(result) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("sec: failed to shuffle password: %w", err)
		}
		k := j.Int64()
		result[i], result[k] = result[k], result[i]
	}

	return string(result), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("sec: failed to generate password: %w", err)
	}
	return alphabet[n.Int64()], nil
}
