package mining

import (
	"time"

	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/util"
)

// headerTimes returns the header timestamp to use at now and how many seconds the resulting work
// stays valid. The timestamp advances with the time elapsed since the template was received but
// never passes MaxTime. A miner that rolls ntime itself has to stop before it would pass MaxTime.
func headerTimes(tmpl *model.Template, now time.Time, canRollNTime bool) (uint32, int16) {
	// whole wall-clock seconds, so a boundary crossed between fetch and now counts as one
	elapsed := now.Unix() - tmpl.ReceivedAt.Unix()

	hdrTime := int64(tmpl.CurTime) + elapsed
	if hdrTime > int64(tmpl.MaxTime) {
		hdrTime = int64(tmpl.MaxTime)
	}

	if hdrTime < 0 {
		hdrTime = 0
	}

	expire := tmpl.Expires - elapsed - 1

	if canRollNTime {
		if limit := int64(tmpl.MaxTime) - hdrTime + 1; expire > limit {
			expire = limit
		}
	}

	return uint32(hdrTime), util.ClampInt16(expire)
}
