package downloader

// PlanRanges splits [0, totalSize) into workerCount ordered byte ranges.
// The default plan tiles the file exactly: every range spans
// totalSize/workerCount bytes and the last range absorbs the remainder.
// The legacy plan keeps the arithmetic of the original tool: every End is
// inflated by the remainder, so interior ranges overlap their successor by
// remainder bytes. Overlapped bytes are fetched and written more than once
// with identical content, which inflates byte counters but not the file.
func PlanRanges(totalSize int64, workerCount int, legacy bool) ([]ByteRange, error) {
	if workerCount <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if totalSize < 0 {
		return nil, ErrInvalidArgument
	}
	n := int64(workerCount)
	chunk := totalSize / n
	ranges := make([]ByteRange, workerCount)
	if legacy {
		remainder := totalSize % n
		for i := int64(0); i < n; i++ {
			ranges[i] = ByteRange{Start: chunk * i, End: chunk*(i+1) + remainder}
		}
		return ranges, nil
	}
	for i := int64(0); i < n; i++ {
		ranges[i] = ByteRange{Start: chunk * i, End: chunk * (i + 1)}
	}
	ranges[workerCount-1].End = totalSize
	return ranges, nil
}
