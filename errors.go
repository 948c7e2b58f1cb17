package noteserver

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")

	ErrJobNotExist       = errors.New("job_not_exist")
	ErrConfigNotActive   = errors.New("snapshot_config_not_activated")
	ErrScheduleUndefined = errors.New("snapshot_offsets_undefined")

	ErrZeroPrincipal = errors.New("zero_principal")
	ErrBadAmount     = errors.New("bad_amount")
)
