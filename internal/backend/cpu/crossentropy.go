package cpu

import "math"

// CrossEntropy computes mean negative log-likelihood over rows of logits
// [rows, classes] against integer targets [rows], using the log-sum-exp
// trick for stability. Returns the scalar mean loss.
func CrossEntropy(logits []float32, targets []int32, rows, classes int) float32 {
	var total float64
	for r := 0; r < rows; r++ {
		row := logits[r*classes : (r+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logZ := float64(maxVal) + math.Log(sumExp)
		total += logZ - float64(row[targets[r]])
	}
	return float32(total / float64(rows))
}

// CrossEntropyBackward computes dlogits = gradScale * (softmax - onehot) / rows.
func CrossEntropyBackward(logits []float32, targets []int32, rows, classes int, gradScale float32) []float32 {
	out := make([]float32, len(logits))
	invRows := gradScale / float32(rows)
	for r := 0; r < rows; r++ {
		row := logits[r*classes : (r+1)*classes]
		oRow := out[r*classes : (r+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		inv := 1 / float32(sumExp)
		for c := range row {
			p := float32(math.Exp(float64(row[c]-maxVal))) * inv
			if int32(c) == targets[r] {
				p -= 1
			}
			oRow[c] = p * invRows
		}
	}
	return out
}
