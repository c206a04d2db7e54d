package xmlrpc

// lookup fetches a member and checks its kind. present is false when the
// member does not exist; err is set only when it exists with another kind.
func lookup[T Value](s *Struct, name string, want Kind) (v T, present bool, err error) {
	raw, ok := s.Get(name)
	if !ok {
		return v, false, nil
	}
	typed, ok := raw.(T)
	if !ok {
		return v, true, &FieldError{Field: name, Want: want, Got: raw.Kind(), Err: ErrWrongType}
	}
	return typed, true, nil
}

func requireMember[T Value](s *Struct, name string, want Kind) (T, error) {
	v, present, err := lookup[T](s, name, want)
	if err != nil {
		return v, err
	}
	if !present {
		return v, &FieldError{Field: name, Want: want, Err: ErrMissingField}
	}
	return v, nil
}

// RequireString returns a string member or a FieldError
func (s *Struct) RequireString(name string) (string, error) {
	v, err := requireMember[String](s, name, KindString)
	return string(v), err
}

// RequireBool returns a boolean member or a FieldError
func (s *Struct) RequireBool(name string) (bool, error) {
	v, err := requireMember[Boolean](s, name, KindBoolean)
	return bool(v), err
}

// RequireInt returns an int member or a FieldError
func (s *Struct) RequireInt(name string) (int64, error) {
	v, err := requireMember[Int](s, name, KindInt)
	return int64(v), err
}

// RequireBase64 returns the bytes of a base64 member or a FieldError
func (s *Struct) RequireBase64(name string) ([]byte, error) {
	v, err := requireMember[Base64](s, name, KindBase64)
	return []byte(v), err
}

// RequireArray returns an array member or a FieldError
func (s *Struct) RequireArray(name string) (Array, error) {
	return requireMember[Array](s, name, KindArray)
}

// LookupString distinguishes an absent member (ok == false) from one holding
// another kind (err != nil).
func (s *Struct) LookupString(name string) (value string, ok bool, err error) {
	v, present, err := lookup[String](s, name, KindString)
	return string(v), present, err
}

// LookupArray is LookupString for arrays
func (s *Struct) LookupArray(name string) (Array, bool, error) {
	return lookup[Array](s, name, KindArray)
}

// LookupDateTime is LookupString for timestamps
func (s *Struct) LookupDateTime(name string) (DateTime, bool, error) {
	return lookup[DateTime](s, name, KindDateTime)
}

// OptionalString returns def when the member is absent
func (s *Struct) OptionalString(name, def string) (string, error) {
	v, ok, err := s.LookupString(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// OptionalArray returns def when the member is absent
func (s *Struct) OptionalArray(name string, def Array) (Array, error) {
	v, ok, err := s.LookupArray(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}
