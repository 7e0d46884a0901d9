package errors

import "strconv"

// ERR is the numeric code carried by every Error.
type ERR int32

const (
	ERR_UNKNOWN                       ERR = 0
	ERR_INVALID_ARGUMENT              ERR = 1
	ERR_THRESHOLD_EXCEEDED            ERR = 2
	ERR_NOT_FOUND                     ERR = 3
	ERR_PROCESSING                    ERR = 4
	ERR_CONFIGURATION                 ERR = 5
	ERR_SERVICE_UNAVAILABLE           ERR = 6
	ERR_SERVICE_ERROR                 ERR = 8
	ERR_ERROR                         ERR = 9
	ERR_BLOCK_INVALID                 ERR = 11
	ERR_TX_INVALID                    ERR = 31
	ERR_COINBASE_MISSING_BLOCK_HEIGHT ERR = 35

	// block maker
	ERR_MUTATION_NOT_PERMITTED ERR = 60
	ERR_SIZE_LIMIT_EXCEEDED    ERR = 61
	ERR_SIGOP_LIMIT_EXCEEDED   ERR = 62
	ERR_EXTRANONCE_INVALID     ERR = 63
	ERR_COINBASE_VALUE_UNKNOWN ERR = 64
	ERR_COINBASE_MISSING       ERR = 65
	ERR_TEMPLATE_EXPIRED       ERR = 66
	ERR_WORK_EXHAUSTED         ERR = 67
	ERR_HASH_FAILED            ERR = 68
	ERR_RULE_UNSUPPORTED       ERR = 69
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "THRESHOLD_EXCEEDED",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	6:  "SERVICE_UNAVAILABLE",
	8:  "SERVICE_ERROR",
	9:  "ERROR",
	11: "BLOCK_INVALID",
	31: "TX_INVALID",
	35: "COINBASE_MISSING_BLOCK_HEIGHT",
	60: "MUTATION_NOT_PERMITTED",
	61: "SIZE_LIMIT_EXCEEDED",
	62: "SIGOP_LIMIT_EXCEEDED",
	63: "EXTRANONCE_INVALID",
	64: "COINBASE_VALUE_UNKNOWN",
	65: "COINBASE_MISSING",
	66: "TEMPLATE_EXPIRED",
	67: "WORK_EXHAUSTED",
	68: "HASH_FAILED",
	69: "RULE_UNSUPPORTED",
}

func (x ERR) Enum() *ERR {
	p := new(ERR)
	*p = x

	return p
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}
