package teststreaming

// For debugging:
// use <-loglevel verbose>
// remove <-nostats>

// DO NOT REMOVE THE EXTRA SPACES ON THE END OF THESE LINES
var ffmpeg_input = ` 
	-hide_banner -loglevel error -nostats -y 
	-f lavfi -i testsrc2=size=320x240:rate=30,format=yuv420p 
	-frames:v 90 
	-c:v libx264 -preset veryfast -profile:v baseline -threads 1 
	-x264opts keyint=30:min-keyint=30:scenecut=-1:slices=1:sliced-threads=0 
`

// three GOPs of 30 frames, IDR every 30 frames
var FFMPEG_MP4_H264 = testFFmpeg{
	arguments:      ffmpeg_input + ` -an -f mp4 `,
	filename:       "testsrc.mp4",
	expectedFrames: 90,
	frameRate:      30,
}

// raw x264 output: 4-byte start codes before parameter sets and the first unit of each
// access unit, 3-byte ones elsewhere
var FFMPEG_ANNEXB_H264 = testFFmpeg{
	arguments:      ffmpeg_input + ` -an -f h264 `,
	filename:       "testsrc.h264",
	expectedFrames: 90,
	frameRate:      30,
}
